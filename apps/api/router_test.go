package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tenantshandler "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/handler"
	tenantsrepo "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/repo"
	tenantsservice "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/auth/devtoken"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type branchMap map[uuid.UUID]uuid.UUID

func (m branchMap) BranchTenant(_ context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	if tid, ok := m[branchID]; ok {
		return tid, nil
	}
	return uuid.Nil, apperr.NotFound("Branch")
}

type fixture struct {
	handler  http.Handler
	tenants  *tenantsservice.Service
	recorder *metrics.Recorder
}

func newFixture(t *testing.T, ready func(context.Context) error) fixture {
	t.Helper()
	logger := zap.NewNop()
	recorder := metrics.New("gym_test")
	tenants := tenantsservice.New(tenantsrepo.NewMemoryRepository(), recorder)

	cfg := config{JWTSecret: testSecret, JWTLeeway: time.Second}
	h := newRouter(routerDeps{
		Logger:         logger,
		Metrics:        recorder,
		Auth:           buildAuthMiddleware(cfg, logger),
		Branches:       branchMap{},
		RequestTimeout: 5 * time.Second,
		Ready:          ready,
		Handlers:       []routeMounter{tenantshandler.New(tenants, logger)},
	})
	return fixture{handler: h, tenants: tenants, recorder: recorder}
}

func mintToken(t *testing.T, tenantID string) string {
	t.Helper()
	token, err := devtoken.BuildToken(devtoken.Params{
		Secret:   []byte(testSecret),
		UserID:   "staff-1",
		TenantID: tenantID,
	}, time.Now().UTC())
	require.NoError(t, err)
	return token
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	f := newFixture(t, func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRejectsNonUUIDTenantClaim(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "acme"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIResolvesTenantFromToken(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.tenants.CreateTenant(context.Background(), tenantsservice.CreateTenantInput{Slug: "acme-gym", Name: "Acme Gym"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, created.ID.String()))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, created.ID.String(), body["id"])
	require.Equal(t, "acme-gym", body["slug"])
}

func TestUnknownBranchHeaderIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.tenants.CreateTenant(context.Background(), tenantsservice.CreateTenantInput{Slug: "acme-gym", Name: "Acme Gym"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, created.ID.String()))
	req.Header.Set("X-Branch-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpointExposesRouteCounters(t *testing.T) {
	f := newFixture(t, nil)

	f.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `gym_test_http_requests_total{method="GET",route="/healthz",status="200"}`))
}
