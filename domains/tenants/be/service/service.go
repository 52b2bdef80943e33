package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

// Tenant represents the domain model for a tenant registry entry.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	ShortID   string
	CreatedAt time.Time
}

// Branch is one location of a tenant.
type Branch struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
}

// CreateTenantInput represents the request to create a tenant.
type CreateTenantInput struct {
	Slug string `json:"slug" validate:"required,max=63,slug"`
	Name string `json:"name" validate:"required,max=200"`
}

type CreateBranchInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

// Repository abstracts persistence.
type Repository interface {
	CreateTenant(ctx context.Context, slug, name string) (Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error)
	FindBySlug(ctx context.Context, slug string) (Tenant, error)
	CreateBranch(ctx context.Context, tenantID uuid.UUID, name string) (Branch, error)
	ListBranches(ctx context.Context, filter persistence.Filter) ([]Branch, error)
}

// Service provides tenant registry and branch operations.
type Service struct {
	repo    Repository
	metrics *metrics.Recorder
}

// New constructs a Service. rec may be nil.
func New(repo Repository, rec *metrics.Recorder) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	return &Service{repo: repo, metrics: rec}
}

// CreateTenant registers a tenant. Slugs are kebab-case and unique.
func (s *Service) CreateTenant(ctx context.Context, input CreateTenantInput) (t Tenant, err error) {
	defer func() { s.metrics.Operation("tenant_create", err) }()

	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Tenant{}, err
	}
	return s.repo.CreateTenant(ctx, input.Slug, input.Name)
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return s.repo.GetTenant(ctx, id)
}

// FindBySlug returns a tenant by slug.
func (s *Service) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	return s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// Current returns the tenant active on ctx.
func (s *Service) Current(ctx context.Context) (Tenant, error) {
	id, ok := tenant.CurrentTenant(ctx)
	if !ok {
		return Tenant{}, apperr.Invalid("no tenant in scope", nil)
	}
	return s.repo.GetTenant(ctx, id)
}

// CreateBranch adds a branch to tenantID. A nil tenantID means the tenant on ctx.
func (s *Service) CreateBranch(ctx context.Context, tenantID *uuid.UUID, input CreateBranchInput) (b Branch, err error) {
	defer func() { s.metrics.Operation("branch_create", err) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Branch{}, err
	}

	target := uuid.Nil
	if tenantID != nil {
		target = *tenantID
	} else if id, ok := tenant.CurrentTenant(ctx); ok {
		target = id
	}
	if target == uuid.Nil {
		return Branch{}, apperr.InvalidField("tenant_id", "is required")
	}
	return s.repo.CreateBranch(ctx, target, input.Name)
}

// ListBranches lists the branches visible under the scope on ctx.
func (s *Service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.repo.ListBranches(ctx, persistence.ScopedFromContext(ctx))
}
