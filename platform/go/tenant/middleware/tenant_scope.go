package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformapi "github.com/zenGate-Global/palmyra-gym/platform/go/api"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	platformauth "github.com/zenGate-Global/palmyra-gym/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// BranchHeader narrows a request to one branch of the caller's tenant.
const BranchHeader = "X-Branch-ID"

// BranchResolver reports which tenant owns a branch.
// Implemented by the branch store and its redis cache.
type BranchResolver interface {
	BranchTenant(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error)
}

// Config controls middleware behavior.
type Config struct {
	// Optional small in-memory TTL cache to avoid resolver hits; zero disables caching.
	CacheTTL time.Duration
}

// WithTenantScope resolves tenant and branch from the authenticated actor and attaches a
// tenant.Scope to the request context. A tenant claim is mandatory; the branch comes from the
// X-Branch-ID header when present, else from the branch_id claim, and must belong to the tenant.
func WithTenantScope(resolver BranchResolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	var cache *branchCache
	if cfg.CacheTTL > 0 {
		cache = newBranchCache(cfg.CacheTTL)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := platformauth.UserFromContext(r.Context())
			if !ok || creds == nil || creds.TenantID == nil || *creds.TenantID == "" {
				platformapi.Reject(w, http.StatusUnauthorized, "tenant required")
				return
			}

			tid, err := uuid.Parse(*creds.TenantID)
			if err != nil {
				platformapi.Reject(w, http.StatusUnauthorized, "invalid tenant id")
				return
			}
			scope := tenant.ForTenant(tid)

			rawBranch := strings.TrimSpace(r.Header.Get(BranchHeader))
			if rawBranch == "" && creds.BranchID != nil {
				rawBranch = *creds.BranchID
			}

			if rawBranch != "" {
				bid, err := uuid.Parse(rawBranch)
				if err != nil {
					platformapi.Reject(w, http.StatusBadRequest, "invalid branch id")
					return
				}

				owner, found := cache.get(bid)
				if !found {
					owner, err = resolver.BranchTenant(r.Context(), bid)
					if errors.Is(err, apperr.ErrNotFound) {
						platformapi.Reject(w, http.StatusForbidden, "branch not found")
						return
					}
					if err != nil {
						platformapi.Fail(w, r, nil, "resolve branch", err)
						return
					}
					cache.put(bid, owner)
				}

				if owner != tid {
					platformapi.Reject(w, http.StatusForbidden, "branch belongs to another tenant")
					return
				}
				scope.BranchID = &bid
			}

			ctx := tenant.WithScope(r.Context(), scope)
			fields := []zap.Field{zap.String("tenant_id", tid.String())}
			if scope.BranchID != nil {
				fields = append(fields, zap.String("branch_id", scope.BranchID.String()))
			}
			ctx = platformlogging.With(ctx, fields...)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type branchCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[uuid.UUID]cacheItem
}

type cacheItem struct {
	tenantID  uuid.UUID
	expiresAt time.Time
}

func newBranchCache(ttl time.Duration) *branchCache {
	return &branchCache{ttl: ttl, items: make(map[uuid.UUID]cacheItem)}
}

func (c *branchCache) get(branchID uuid.UUID) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	item, ok := c.items[branchID]
	c.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return uuid.Nil, false
	}
	return item.tenantID, true
}

func (c *branchCache) put(branchID, tenantID uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[branchID] = cacheItem{tenantID: tenantID, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}
