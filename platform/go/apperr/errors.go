// Package apperr defines the error kinds surfaced by the gym core. Callers
// (HTTP handlers, CLI commands) switch on the kind to pick a presentation;
// the core itself never logs or retries these errors.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindDomainConflict      Kind = "domain_conflict"
	KindInvariantViolation  Kind = "invariant_violation"
	KindInvalidInput        Kind = "invalid_input"
	KindConstraintViolation Kind = "constraint_violation"
	KindNotFound            Kind = "not_found"
	KindUnknown             Kind = "unknown"
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrDomainConflict      = errors.New("domain conflict")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("not found")
)

// FieldErrors maps input fields to validation issues.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}

// Error is the concrete error carried through the core.
type Error struct {
	Kind Kind
	// Entity names the affected entity type (e.g. "Invoice"), when known.
	Entity string
	// Message is a short human readable description.
	Message string
	// Constraint holds the storage constraint name for constraint violations.
	Constraint string
	Fields     FieldErrors
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Constraint != "" {
		fmt.Fprintf(&b, " (constraint %s)", e.Constraint)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, " [fields: %s]", strings.Join(keys, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the wrapped cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (k Kind) sentinel() error {
	switch k {
	case KindDomainConflict:
		return ErrDomainConflict
	case KindInvariantViolation:
		return ErrInvariantViolation
	case KindInvalidInput:
		return ErrInvalidInput
	case KindConstraintViolation:
		return ErrConstraintViolation
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Conflict reports that a business invariant would be violated by the write.
func Conflict(entity, message string) *Error {
	return &Error{Kind: KindDomainConflict, Entity: entity, Message: message}
}

// Invariant reports a permanently disallowed mutation.
func Invariant(entity, message string) *Error {
	return &Error{Kind: KindInvariantViolation, Entity: entity, Message: message}
}

// Invalid reports malformed input. fields may be nil.
func Invalid(message string, fields FieldErrors) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Fields: fields}
}

// InvalidField is shorthand for a single-field validation failure.
func InvalidField(field, message string) *Error {
	fields := FieldErrors{}
	fields.Add(field, message)
	return &Error{Kind: KindInvalidInput, Message: message, Fields: fields}
}

// Constraint wraps a storage-level constraint failure.
func Constraint(constraint string, err error) *Error {
	return &Error{Kind: KindConstraintViolation, Constraint: constraint, Message: "storage constraint violated", Err: err}
}

// NotFound reports a missing (or out of scope) row.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: strings.ToLower(entity) + " not found"}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
