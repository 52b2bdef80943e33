package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

const shortIDLength = 8

// PostgresRepository implements the tenant repository using the shared persistence layer.
type PostgresRepository struct {
	tenants  *persistence.TenantStore
	branches *persistence.BranchStore
}

// NewPostgresRepository constructs a repository backed by TenantStore and BranchStore.
func NewPostgresRepository(tenants *persistence.TenantStore, branches *persistence.BranchStore) *PostgresRepository {
	if tenants == nil || branches == nil {
		panic("tenant and branch stores are required")
	}
	return &PostgresRepository{tenants: tenants, branches: branches}
}

func (r *PostgresRepository) CreateTenant(ctx context.Context, slug, name string) (service.Tenant, error) {
	row, err := r.tenants.Create(ctx, persistence.CreateTenantParams{Slug: slug, Name: name})
	if err != nil {
		return service.Tenant{}, err
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) GetTenant(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	row, err := r.tenants.Get(ctx, id)
	if err != nil {
		return service.Tenant{}, err
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (service.Tenant, error) {
	row, err := r.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return service.Tenant{}, err
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) CreateBranch(ctx context.Context, tenantID uuid.UUID, name string) (service.Branch, error) {
	row, err := r.branches.Create(ctx, tenantID, name)
	if err != nil {
		return service.Branch{}, err
	}
	return toBranch(row), nil
}

func (r *PostgresRepository) ListBranches(ctx context.Context, filter persistence.Filter) ([]service.Branch, error) {
	rows, err := r.branches.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]service.Branch, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBranch(row))
	}
	return out, nil
}

func toTenant(row persistence.Tenant) service.Tenant {
	return service.Tenant{
		ID:        row.ID,
		Slug:      row.Slug,
		Name:      row.Name,
		ShortID:   tenant.ShortID(row.ID, shortIDLength),
		CreatedAt: row.CreatedAt,
	}
}

func toBranch(row persistence.Branch) service.Branch {
	return service.Branch{ID: row.ID, TenantID: row.TenantID, Name: row.Name, CreatedAt: row.CreatedAt}
}
