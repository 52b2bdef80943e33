package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and local tooling.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]service.Tenant
	bySlug   map[string]uuid.UUID
	branches map[uuid.UUID]service.Branch
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[uuid.UUID]service.Tenant),
		bySlug:   make(map[string]uuid.UUID),
		branches: make(map[uuid.UUID]service.Branch),
	}
}

func (r *MemoryRepository) CreateTenant(ctx context.Context, slug, name string) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[slug]; exists {
		return service.Tenant{}, apperr.Constraint("tenants_slug_key", nil)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return service.Tenant{}, err
	}
	t := service.Tenant{ID: id, Slug: slug, Name: name, ShortID: tenant.ShortID(id, shortIDLength), CreatedAt: time.Now().UTC()}
	r.byID[id] = t
	r.bySlug[slug] = id
	return t, nil
}

func (r *MemoryRepository) GetTenant(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return service.Tenant{}, apperr.NotFound("Tenant")
	}
	return t, nil
}

func (r *MemoryRepository) FindBySlug(ctx context.Context, slug string) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlug[slug]
	if !ok {
		return service.Tenant{}, apperr.NotFound("Tenant")
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) CreateBranch(ctx context.Context, tenantID uuid.UUID, name string) (service.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[tenantID]; !ok {
		return service.Branch{}, apperr.NotFound("Tenant")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return service.Branch{}, err
	}
	b := service.Branch{ID: id, TenantID: tenantID, Name: name, CreatedAt: time.Now().UTC()}
	r.branches[id] = b
	return b, nil
}

func (r *MemoryRepository) ListBranches(ctx context.Context, filter persistence.Filter) ([]service.Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenantID, scoped := filter.Tenant()
	out := make([]service.Branch, 0, len(r.branches))
	for _, b := range r.branches {
		if scoped && b.TenantID != tenantID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
