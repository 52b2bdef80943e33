package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

func TestTenantAndBranchLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, br := env.seedTenant(t, "acme-gym")

	bySlug, err := env.tenants.GetBySlug(ctx, "ACME-GYM")
	require.NoError(t, err)
	require.Equal(t, tn.ID, bySlug.ID)

	_, err = env.tenants.Create(ctx, CreateTenantParams{Slug: "acme-gym", Name: "Again"})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	_, err = env.tenants.Create(ctx, CreateTenantParams{Slug: "Not A Slug", Name: ""})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	owner, err := env.branches.BranchTenant(ctx, br.ID)
	require.NoError(t, err)
	require.Equal(t, tn.ID, owner)

	_, err = env.branches.BranchTenant(ctx, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)

	other, _ := env.seedTenant(t, "other-gym")
	_, err = env.branches.Get(ctx, ForTenant(other.ID), br.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := env.branches.List(ctx, ForTenant(tn.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestScopeTriggerRejectsForeignTenantWrites(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	a, _ := env.seedTenant(t, "tenant-a")
	b, _ := env.seedTenant(t, "tenant-b")

	ctxA := tenant.WithTenant(context.Background(), a.ID)
	member := env.seedMember(t, ctxA, "Ada")

	// a raw write under tenant B's scope cannot touch tenant A's row
	err := env.db.WithScope(context.Background(), tenant.ForTenant(b.ID), func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), `UPDATE members SET full_name = 'x' WHERE id = $1`, member.ID)
		return err
	})
	require.ErrorIs(t, mapError("update", "Member", err), apperr.ErrInvariantViolation)

	// tenant_id never changes, even without a scope
	err = env.exec(context.Background(), `UPDATE members SET tenant_id = $1 WHERE id = $2`, b.ID, member.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "immutable")
}
