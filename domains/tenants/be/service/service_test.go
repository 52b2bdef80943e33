package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// inMemoryRepo is a minimal in-memory impl of Repository for tests.
type inMemoryRepo struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]Tenant
	branches []Branch
}

func newInMemoryRepo() *inMemoryRepo {
	return &inMemoryRepo{tenants: make(map[uuid.UUID]Tenant)}
}

func (r *inMemoryRepo) CreateTenant(ctx context.Context, slug, name string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := Tenant{ID: uuid.New(), Slug: slug, Name: name, CreatedAt: time.Now()}
	r.tenants[t.ID] = t
	return t, nil
}

func (r *inMemoryRepo) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, apperr.NotFound("Tenant")
	}
	return t, nil
}

func (r *inMemoryRepo) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return Tenant{}, apperr.NotFound("Tenant")
}

func (r *inMemoryRepo) CreateBranch(ctx context.Context, tenantID uuid.UUID, name string) (Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := Branch{ID: uuid.New(), TenantID: tenantID, Name: name}
	r.branches = append(r.branches, b)
	return b, nil
}

func (r *inMemoryRepo) ListBranches(ctx context.Context, filter persistence.Filter) ([]Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenantID, scoped := filter.Tenant()
	out := []Branch{}
	for _, b := range r.branches {
		if !scoped || b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestCreateTenantNormalisesSlug(t *testing.T) {
	t.Parallel()

	svc := New(newInMemoryRepo(), nil)

	created, err := svc.CreateTenant(context.Background(), CreateTenantInput{Slug: "  Iron-Temple ", Name: " Iron Temple "})
	require.NoError(t, err)
	require.Equal(t, "iron-temple", created.Slug)
	require.Equal(t, "Iron Temple", created.Name)

	found, err := svc.FindBySlug(context.Background(), "IRON-TEMPLE")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
}

func TestCreateTenantValidation(t *testing.T) {
	t.Parallel()

	_, err := New(newInMemoryRepo(), nil).CreateTenant(context.Background(), CreateTenantInput{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "slug")
	require.Contains(t, appErr.Fields, "name")
}

func TestCurrentRequiresScope(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	svc := New(repo, nil)

	_, err := svc.Current(context.Background())
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))

	created, err := svc.CreateTenant(context.Background(), CreateTenantInput{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	current, err := svc.Current(tenant.WithTenant(context.Background(), created.ID))
	require.NoError(t, err)
	require.Equal(t, created.ID, current.ID)
}

func TestCreateBranchDefaultsToScopeTenant(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	svc := New(repo, nil)
	tenantID := uuid.New()

	_, err := svc.CreateBranch(context.Background(), nil, CreateBranchInput{Name: "Downtown"})
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))

	branch, err := svc.CreateBranch(tenant.WithTenant(context.Background(), tenantID), nil, CreateBranchInput{Name: " Downtown "})
	require.NoError(t, err)
	require.Equal(t, tenantID, branch.TenantID)
	require.Equal(t, "Downtown", branch.Name)

	other := uuid.New()
	_, err = svc.CreateBranch(context.Background(), &other, CreateBranchInput{Name: "Uptown"})
	require.NoError(t, err)

	visible, err := svc.ListBranches(tenant.WithTenant(context.Background(), tenantID))
	require.NoError(t, err)
	require.Len(t, visible, 1)

	all, err := svc.ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}
