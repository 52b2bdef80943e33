package entity

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/requesttrace"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// Base carries the ownership columns shared by every tenant-owned row.
type Base struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	BranchID *uuid.UUID
}

// NewID returns a time-ordered (v7) identifier.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// only fails when the random source does
		return uuid.New()
	}
	return id
}

// AssignIdentity fills the ownership columns of a new row:
//   - ID gets a fresh v7 identifier when unset;
//   - TenantID comes from the active scope when unset, and must match it when set;
//   - branch-scoped kinds without a branch take the active branch, or the actor's home branch.
func AssignIdentity(ctx context.Context, kind Kind, b *Base) error {
	if b.ID == uuid.Nil {
		b.ID = NewID()
	}

	scope, _ := tenant.FromContext(ctx)
	active, hasTenant := scope.Tenant()
	switch {
	case b.TenantID == uuid.Nil && hasTenant:
		b.TenantID = active
	case b.TenantID == uuid.Nil:
		return apperr.InvalidField("tenant_id", kind.Name+" requires a tenant")
	case hasTenant && b.TenantID != active:
		return apperr.InvalidField("tenant_id", "tenant does not match the active tenant")
	}

	if !kind.BranchScoped || b.BranchID != nil {
		return nil
	}
	if branchID, ok := scope.Branch(); ok {
		b.BranchID = &branchID
		return nil
	}
	if branchID, ok := requesttrace.FromContextOrAnonymous(ctx).HomeBranch(); ok {
		b.BranchID = &branchID
	}
	return nil
}
