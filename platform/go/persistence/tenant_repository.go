package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// Tenant is a row of the tenant registry.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	CreatedAt time.Time
}

// Branch is a physical location of a tenant.
type Branch struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
}

// TenantStore provides access to the tenants table. Tenants are created by
// system tooling, so it runs without a scope.
type TenantStore struct {
	db *TenantDB
}

func NewTenantStore(db *TenantDB) *TenantStore {
	return &TenantStore{db: db}
}

type CreateTenantParams struct {
	Slug string
	Name string
}

// Create inserts a tenant with a fresh v7 id.
func (s *TenantStore) Create(ctx context.Context, params CreateTenantParams) (Tenant, error) {
	slug, err := NormalizeSlug(params.Slug)
	if err != nil {
		return Tenant{}, err
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Tenant{}, apperr.InvalidField("name", "is required")
	}

	var out Tenant
	err = s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO tenants (id, slug, name, created_at)
            VALUES ($1, $2, $3, $4)
            RETURNING id, slug, name, created_at
        `, entity.NewID(), slug, name, s.db.Now())

		var err error
		out, err = scanTenant(row)
		return err
	})
	return out, mapError("create tenant", "Tenant", err)
}

// Get fetches a tenant by id.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	var out Tenant
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenant(tx.QueryRow(ctx, `SELECT id, slug, name, created_at FROM tenants WHERE id = $1`, id))
		return err
	})
	return out, mapError("get tenant", "Tenant", err)
}

// GetBySlug fetches a tenant by slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	var out Tenant
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenant(tx.QueryRow(ctx, `SELECT id, slug, name, created_at FROM tenants WHERE slug = $1`,
			strings.ToLower(strings.TrimSpace(slug))))
		return err
	})
	return out, mapError("get tenant", "Tenant", err)
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt)
	return t, err
}

// BranchStore provides access to the branches table.
type BranchStore struct {
	db *TenantDB
}

func NewBranchStore(db *TenantDB) *BranchStore {
	return &BranchStore{db: db}
}

// Create adds a branch to tenantID.
func (s *BranchStore) Create(ctx context.Context, tenantID uuid.UUID, name string) (Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Branch{}, apperr.InvalidField("name", "is required")
	}

	base := entity.Base{TenantID: tenantID}
	ctx = tenant.WithTenant(ctx, tenantID)
	if err := entity.AssignIdentity(ctx, entity.Branch, &base); err != nil {
		return Branch{}, err
	}

	var out Branch
	err := s.db.WithScope(ctx, tenant.ForTenant(tenantID), func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO branches (id, tenant_id, name, created_at)
            VALUES ($1, $2, $3, $4)
            RETURNING id, tenant_id, name, created_at
        `, base.ID, base.TenantID, name, s.db.Now())

		var err error
		out, err = scanBranch(row)
		return err
	})
	return out, mapError("create branch", entity.Branch.Name, err)
}

// Get fetches one branch visible through filter.
func (s *BranchStore) Get(ctx context.Context, filter Filter, id uuid.UUID) (Branch, error) {
	var out Branch
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Branch, "", &args)
		query := fmt.Sprintf(`SELECT id, tenant_id, name, created_at FROM branches WHERE %s AND id = %s`, where, args.Add(id))

		var err error
		out, err = scanBranch(tx.QueryRow(ctx, query, args.Values()...))
		return err
	})
	return out, mapError("get branch", entity.Branch.Name, err)
}

// List returns the branches visible through filter ordered by name.
func (s *BranchStore) List(ctx context.Context, filter Filter) ([]Branch, error) {
	out := []Branch{}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Branch, "", &args)
		rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT id, tenant_id, name, created_at FROM branches WHERE %s ORDER BY name`, where), args.Values()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBranch(rows)
			if err != nil {
				return fmt.Errorf("scan branch: %w", err)
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, mapError("list branches", entity.Branch.Name, err)
}

// BranchTenant reports the tenant owning branchID. It is a system lookup used
// by the tenant middleware before any scope exists.
func (s *BranchStore) BranchTenant(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT tenant_id FROM branches WHERE id = $1`, branchID).Scan(&tenantID)
	})
	return tenantID, mapError("resolve branch", entity.Branch.Name, err)
}

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt)
	return b, err
}
