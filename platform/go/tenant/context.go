package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Scope identifies the active tenant and, optionally, the active branch for one
// unit of work. The zero Scope is the "none" state: system-level access with no
// implicit tenant filtering.
//
// A Scope travels on context.Context; it is never stored in package state, so
// concurrent requests cannot observe each other's scope.
type Scope struct {
	TenantID *uuid.UUID
	BranchID *uuid.UUID
}

// ForTenant builds a Scope for tenantID with no active branch.
func ForTenant(tenantID uuid.UUID) Scope {
	return Scope{TenantID: &tenantID}
}

// ForBranch builds a Scope for tenantID narrowed to branchID.
func ForBranch(tenantID, branchID uuid.UUID) Scope {
	return Scope{TenantID: &tenantID, BranchID: &branchID}
}

// HasTenant reports whether a tenant is active.
func (s Scope) HasTenant() bool { return s.TenantID != nil && *s.TenantID != uuid.Nil }

// HasBranch reports whether a branch is active.
func (s Scope) HasBranch() bool { return s.BranchID != nil && *s.BranchID != uuid.Nil }

// Tenant returns the active tenant id and whether one is set.
func (s Scope) Tenant() (uuid.UUID, bool) {
	if !s.HasTenant() {
		return uuid.Nil, false
	}
	return *s.TenantID, true
}

// Branch returns the active branch id and whether one is set.
func (s Scope) Branch() (uuid.UUID, bool) {
	if !s.HasBranch() {
		return uuid.Nil, false
	}
	return *s.BranchID, true
}

type ctxKey string

const scopeKey ctxKey = "GYM_TENANT_SCOPE"

// WithScope returns a derived context carrying scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope.clone())
}

// FromContext extracts the Scope and a boolean indicating presence.
func FromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	v := ctx.Value(scopeKey)
	if v == nil {
		return Scope{}, false
	}

	scope, ok := v.(Scope)
	return scope.clone(), ok
}

// WithTenant activates tenantID. Switching to a different tenant drops the
// active branch since a branch never spans tenants.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	current, _ := FromContext(ctx)
	next := Scope{TenantID: &tenantID}
	if cur, ok := current.Tenant(); ok && cur == tenantID {
		next.BranchID = current.BranchID
	}
	return WithScope(ctx, next)
}

// WithBranch activates branchID for the current tenant; nil clears the branch.
func WithBranch(ctx context.Context, branchID *uuid.UUID) context.Context {
	current, _ := FromContext(ctx)
	current.BranchID = branchID
	return WithScope(ctx, current)
}

// CurrentTenant returns the active tenant for ctx.
func CurrentTenant(ctx context.Context) (uuid.UUID, bool) {
	scope, _ := FromContext(ctx)
	return scope.Tenant()
}

// CurrentBranch returns the active branch for ctx.
func CurrentBranch(ctx context.Context) (uuid.UUID, bool) {
	scope, _ := FromContext(ctx)
	return scope.Branch()
}

// Run executes fn with scope active. The caller's context is not modified, so
// the outer scope is back in effect once fn returns, errors, or panics.
func Run(ctx context.Context, scope Scope, fn func(ctx context.Context) error) error {
	return fn(WithScope(ctx, scope))
}

func (s Scope) clone() Scope {
	out := Scope{}
	if s.TenantID != nil {
		id := *s.TenantID
		out.TenantID = &id
	}
	if s.BranchID != nil {
		id := *s.BranchID
		out.BranchID = &id
	}
	return out
}
