package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCredentialExtractor(t *testing.T) {
	testCases := []struct {
		name       string
		claims     map[string]interface{}
		wantErr    bool
		wantTenant *string
		wantBranch *string
		wantAdmin  bool
	}{
		{
			name: "tenant and branch claims",
			claims: map[string]interface{}{
				"sub":       "user-123",
				"email":     "coach@example.com",
				"tenant_id": "0190f5a2-7c3b-7d10-9a2b-1c2d3e4f5a6b",
				"branch_id": "0190f5a2-7c3b-7d10-9a2b-000000000001",
				"is_admin":  true,
			},
			wantTenant: ptr("0190f5a2-7c3b-7d10-9a2b-1c2d3e4f5a6b"),
			wantBranch: ptr("0190f5a2-7c3b-7d10-9a2b-000000000001"),
			wantAdmin:  true,
		},
		{
			name:       "tenant without branch",
			claims:     map[string]interface{}{"sub": "user-1", "tenant_id": "t-1"},
			wantTenant: ptr("t-1"),
		},
		{
			name:   "empty strings are absent",
			claims: map[string]interface{}{"sub": "user-1", "tenant_id": "", "branch_id": ""},
		},
		{
			name:    "missing subject",
			claims:  map[string]interface{}{"tenant_id": "t-1"},
			wantErr: true,
		},
		{
			name:    "nil claims",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds, err := DefaultCredentialExtractor(tc.claims)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantTenant, creds.TenantID)
			require.Equal(t, tc.wantBranch, creds.BranchID)
			require.Equal(t, tc.wantAdmin, creds.IsAdmin)
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	verify := func(_ context.Context, token string) (map[string]interface{}, error) {
		if token != "good" {
			return nil, context.DeadlineExceeded
		}
		return map[string]interface{}{"sub": "user-1", "tenant_id": "t-1"}, nil
	}

	var seen *UserCredentials
	handler := JWT(verify, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token populates credentials", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, "user-1", seen.Id)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("missing token passes through anonymous", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Nil(t, seen)
	})
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &UserCredentials{Id: "u"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleAdmin(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &UserCredentials{Id: "u"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &UserCredentials{Id: "u", IsAdmin: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func ptr[T any](v T) *T { return &v }
