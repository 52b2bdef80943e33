package persistence

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// Args accumulates positional query arguments.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder ("$n").
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the collected arguments in placeholder order.
func (a *Args) Values() []any { return a.values }

// Filter is the tenant/branch restriction applied to reads of tenant-owned rows.
//
// Scoped derives it from the active scope. ForTenant and ForBranch are the
// bypass: they discard the scope and apply exactly what the caller names.
// There is no way to turn a scope-derived filter into a bypass.
type Filter struct {
	tenantID *uuid.UUID
	branchID *uuid.UUID
	// branchExact means "apply the branch condition even when branchID is nil"
	// (that is, branch_id IS NULL).
	branchExact bool
	bypass      bool
}

// Scoped builds the implicit filter for scope: tenant_id when a tenant is
// active, plus branch_id when a branch is active and the kind is branch scoped.
// An empty scope yields an unrestricted filter for system use.
func Scoped(scope tenant.Scope) Filter {
	f := Filter{}
	if id, ok := scope.Tenant(); ok {
		f.tenantID = &id
		if bid, ok := scope.Branch(); ok {
			f.branchID = &bid
		}
	}
	return f
}

// ForTenant bypasses the active scope and restricts to tenantID across all branches.
func ForTenant(tenantID uuid.UUID) Filter {
	return Filter{tenantID: &tenantID, bypass: true}
}

// ForBranch bypasses the active scope and restricts to tenantID and exactly
// branchID on branch-scoped kinds; a nil branchID matches rows without a branch.
func ForBranch(tenantID uuid.UUID, branchID *uuid.UUID) Filter {
	f := Filter{tenantID: &tenantID, branchExact: true, bypass: true}
	if branchID != nil {
		id := *branchID
		f.branchID = &id
	}
	return f
}

// Unrestricted reports whether the filter adds no condition at all.
func (f Filter) Unrestricted() bool { return f.tenantID == nil }

// Bypass reports whether the filter came from ForTenant/ForBranch.
func (f Filter) Bypass() bool { return f.bypass }

// Tenant returns the tenant the filter restricts to.
func (f Filter) Tenant() (uuid.UUID, bool) {
	if f.tenantID == nil {
		return uuid.Nil, false
	}
	return *f.tenantID, true
}

// Clause renders the filter for kind as a SQL boolean expression, registering
// its arguments in args. alias qualifies the columns when non-empty.
func (f Filter) Clause(kind entity.Kind, alias string, args *Args) string {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var parts []string
	if f.tenantID != nil {
		parts = append(parts, col("tenant_id")+" = "+args.Add(*f.tenantID))
	}
	if kind.BranchScoped {
		switch {
		case f.branchID != nil:
			parts = append(parts, col("branch_id")+" = "+args.Add(*f.branchID))
		case f.branchExact:
			parts = append(parts, col("branch_id")+" IS NULL")
		}
	}

	if len(parts) == 0 {
		return "TRUE"
	}
	return strings.Join(parts, " AND ")
}

// ScopedFromContext is Scoped applied to the scope carried by ctx.
func ScopedFromContext(ctx context.Context) Filter {
	scope, _ := tenant.FromContext(ctx)
	return Scoped(scope)
}
