package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// requireTenant returns the active scope; writes and domain operations need a tenant.
func requireTenant(ctx context.Context) (tenant.Scope, uuid.UUID, error) {
	scope, _ := tenant.FromContext(ctx)
	tenantID, ok := scope.Tenant()
	if !ok {
		return tenant.Scope{}, uuid.Nil, apperr.InvalidField("tenant_id", "an active tenant is required")
	}
	return scope, tenantID, nil
}

// withContextScope runs fn with whatever scope ctx carries (possibly none).
func (db *TenantDB) withContextScope(ctx context.Context, fn func(tx pgx.Tx) error) error {
	scope, _ := tenant.FromContext(ctx)
	return db.WithScope(ctx, scope, fn)
}

// lockMember takes a row lock on a live member of tenantID. Domain operations
// lock the member first so concurrent operations on one member serialise even
// when the row they are about to insert does not exist yet.
func lockMember(ctx context.Context, tx pgx.Tx, tenantID, memberID uuid.UUID) error {
	var args Args
	where := ForTenant(tenantID).Clause(entity.Member, "", &args)
	query := fmt.Sprintf(`SELECT id FROM members WHERE %s AND id = %s AND deleted_at IS NULL FOR UPDATE`,
		where, args.Add(memberID))

	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, args.Values()...).Scan(&id); err != nil {
		return mapError("lock member", entity.Member.Name, err)
	}
	return nil
}

// requireBranch checks that branchID belongs to tenantID.
func requireBranch(ctx context.Context, tx pgx.Tx, tenantID, branchID uuid.UUID) error {
	var args Args
	where := ForTenant(tenantID).Clause(entity.Branch, "", &args)
	query := fmt.Sprintf(`SELECT id FROM branches WHERE %s AND id = %s`, where, args.Add(branchID))

	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, args.Values()...).Scan(&id); err != nil {
		return mapError("load branch", entity.Branch.Name, err)
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
