package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{name: "conflict", err: Conflict("Subscription", "active subscription exists"), sentinel: ErrDomainConflict, kind: KindDomainConflict},
		{name: "invariant", err: Invariant("Invoice", "Invoice deletion is not allowed"), sentinel: ErrInvariantViolation, kind: KindInvariantViolation},
		{name: "invalid", err: InvalidField("amount", "must not be negative"), sentinel: ErrInvalidInput, kind: KindInvalidInput},
		{name: "constraint", err: Constraint("invoices_tenant_number_key", errors.New("duplicate")), sentinel: ErrConstraintViolation, kind: KindConstraintViolation},
		{name: "not-found", err: NotFound("Member"), sentinel: ErrNotFound, kind: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.sentinel)
			require.Equal(t, tt.kind, KindOf(tt.err))
			require.True(t, Is(tt.err, tt.kind))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.sentinel)
			require.Equal(t, tt.kind, KindOf(wrapped))
		})
	}
}

func TestConstraintKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := Constraint("members_tenant_code_key", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "members_tenant_code_key")
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.False(t, Is(nil, KindNotFound))
}

func TestErrorMessageListsFields(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("qty", "must be positive")
	fields.Add("currency", "is required")

	err := Invalid("validation failed", fields)
	require.Equal(t, "invalid_input: validation failed [fields: currency, qty]", err.Error())
}
