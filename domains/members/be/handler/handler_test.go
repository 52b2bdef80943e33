package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-gym/domains/members/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

type mockService struct {
	createFn       func(ctx context.Context, input service.CreateInput) (service.Member, error)
	listFn         func(ctx context.Context, opts service.ListOptions) (service.ListResult, error)
	getFn          func(ctx context.Context, id uuid.UUID) (service.Member, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, input service.UpdateStatusInput) (service.Member, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	restoreFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Member, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, opts)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Member, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) UpdateStatus(ctx context.Context, id uuid.UUID, input service.UpdateStatusInput) (service.Member, error) {
	if m.updateStatusFn == nil {
		panic("updateStatusFn not configured")
	}
	return m.updateStatusFn(ctx, id, input)
}

func (m *mockService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id)
}

func (m *mockService) Restore(ctx context.Context, id uuid.UUID) error {
	if m.restoreFn == nil {
		panic("restoreFn not configured")
	}
	return m.restoreFn(ctx, id)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	New(svc, zaptest.NewLogger(t)).Routes(r)
	return r
}

func TestMembersCreateSuccess(t *testing.T) {
	t.Parallel()

	memberID := uuid.New()
	svc := &mockService{
		createFn: func(ctx context.Context, input service.CreateInput) (service.Member, error) {
			require.Equal(t, "Ada Lovelace", input.FullName)
			return service.Member{ID: memberID, Code: "MBR-0190-00001", FullName: input.FullName, Status: "active", CreatedAt: time.Now()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(`{"full_name":"Ada Lovelace"}`))
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/members/"+memberID.String(), rec.Header().Get("Location"))

	var body memberResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "MBR-0190-00001", body.Code)
}

func TestMembersCreateMissingBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(""))
	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestMembersListParsesQuery(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
			require.Equal(t, 2, opts.Page)
			require.Equal(t, 5, opts.PageSize)
			require.NotNil(t, opts.Status)
			require.Equal(t, "active", *opts.Status)
			return service.ListResult{Page: 2, PageSize: 5, TotalItems: 6, TotalPages: 2}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/members?page=2&page_size=5&status=active", nil)
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.TotalPages)
	require.NotNil(t, body.Items)
}

func TestMembersListRejectsBadPage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/members?page=two", nil)
	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMembersGetNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(ctx context.Context, id uuid.UUID) (service.Member, error) {
			return service.Member{}, apperr.NotFound("Member")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/members/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembersGetInvalidID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/members/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMembersDeleteAndRestore(t *testing.T) {
	t.Parallel()

	memberID := uuid.New()
	var deleted, restored bool
	svc := &mockService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			require.Equal(t, memberID, id)
			deleted = true
			return nil
		},
		restoreFn: func(ctx context.Context, id uuid.UUID) error {
			restored = true
			return nil
		},
	}
	router := newRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/members/"+memberID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/members/"+memberID.String()+"/restore", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.True(t, deleted)
	require.True(t, restored)
}

func TestMembersUpdateStatusConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		updateStatusFn: func(ctx context.Context, id uuid.UUID, input service.UpdateStatusInput) (service.Member, error) {
			return service.Member{}, apperr.Conflict("Member", "member is deleted")
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/members/"+uuid.NewString(), strings.NewReader(`{"status":"suspended"}`))
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}
