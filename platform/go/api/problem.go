// Package api holds the HTTP plumbing shared by the domain handlers:
// problem+json rendering, request decoding and input validation.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/requesttrace"
)

const (
	ProblemTypeValidation = "https://gym.local/problems/validation-error"
	ProblemTypeNotFound   = "https://gym.local/problems/not-found"
	ProblemTypeConflict   = "https://gym.local/problems/conflict"
	ProblemTypeInvariant  = "https://gym.local/problems/invariant-violation"
	ProblemTypeConstraint = "https://gym.local/problems/constraint-violation"
	ProblemTypeInternal   = "https://gym.local/problems/internal-error"
	ProblemTypeAuth       = "https://gym.local/problems/unauthorized"
	ProblemTypeForbidden  = "https://gym.local/problems/forbidden"
)

// ProblemDetails is an RFC 9457 problem document.
type ProblemDetails struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// WriteJSON renders v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteProblem renders p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Reject writes a problem for middleware refusals that carry no apperr.
func Reject(w http.ResponseWriter, status int, detail string) {
	p := ProblemDetails{Title: http.StatusText(status), Status: status, Detail: detail}
	switch status {
	case http.StatusBadRequest:
		p.Type = ProblemTypeValidation
	case http.StatusUnauthorized:
		p.Type = ProblemTypeAuth
	case http.StatusForbidden:
		p.Type = ProblemTypeForbidden
	default:
		p.Type = ProblemTypeInternal
	}
	WriteProblem(w, p)
}

// Classify maps an error onto its HTTP problem.
func Classify(err error) ProblemDetails {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return ProblemDetails{
			Type:   ProblemTypeInternal,
			Title:  "Internal server error",
			Status: http.StatusInternalServerError,
			Detail: "an unexpected error occurred",
		}
	}

	p := ProblemDetails{Detail: appErr.Message}
	switch appErr.Kind {
	case apperr.KindDomainConflict:
		p.Type, p.Title, p.Status = ProblemTypeConflict, "Conflict", http.StatusConflict
	case apperr.KindInvariantViolation:
		p.Type, p.Title, p.Status = ProblemTypeInvariant, "Invariant violation", http.StatusUnprocessableEntity
	case apperr.KindInvalidInput:
		p.Type, p.Title, p.Status = ProblemTypeValidation, "Validation failed", http.StatusBadRequest
		p.Errors = copyFields(appErr.Fields)
	case apperr.KindConstraintViolation:
		p.Type, p.Title, p.Status = ProblemTypeConstraint, "Conflict", http.StatusConflict
		if appErr.Constraint != "" {
			p.Detail = "constraint " + appErr.Constraint + " violated"
		}
	case apperr.KindNotFound:
		p.Type, p.Title, p.Status = ProblemTypeNotFound, "Resource not found", http.StatusNotFound
	default:
		p.Type, p.Title, p.Status = ProblemTypeInternal, "Internal server error", http.StatusInternalServerError
		p.Detail = "an unexpected error occurred"
	}
	return p
}

// Fail logs err at a level matching its status and writes the problem.
func Fail(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, op string, err error) {
	p := Classify(err)

	logger := LoggerFrom(r.Context(), fallback)
	audit := requesttrace.FromContextOrAnonymous(r.Context())
	fields := []zap.Field{
		zap.String("operation", op),
		zap.Int("status", p.Status),
		zap.String("actor_kind", string(audit.ActorKind)),
		zap.Error(err),
	}
	switch {
	case p.Status >= http.StatusInternalServerError:
		logger.Error("operation failed", fields...)
	case p.Status == http.StatusNotFound:
		logger.Info("resource not found", fields...)
	default:
		logger.Warn("request rejected", fields...)
	}

	WriteProblem(w, p)
}

// LoggerFrom prefers the request-scoped logger.
func LoggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

func copyFields(fields apperr.FieldErrors) map[string][]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string][]string, len(fields))
	for field, messages := range fields {
		out[field] = append([]string(nil), messages...)
	}
	return out
}
