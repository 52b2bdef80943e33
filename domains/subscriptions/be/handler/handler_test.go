package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
)

type mockService struct {
	createPlanFn    func(ctx context.Context, input service.CreatePlanInput) (service.Plan, error)
	getPlanFn       func(ctx context.Context, id uuid.UUID) (service.Plan, error)
	activateFn      func(ctx context.Context, memberID uuid.UUID, input service.ActivateInput) (service.Subscription, error)
	cancelFn        func(ctx context.Context, id uuid.UUID) (service.Subscription, error)
	getFn           func(ctx context.Context, id uuid.UUID) (service.Subscription, error)
	listForMemberFn func(ctx context.Context, memberID uuid.UUID) ([]service.Subscription, error)
}

func (m *mockService) CreatePlan(ctx context.Context, input service.CreatePlanInput) (service.Plan, error) {
	if m.createPlanFn == nil {
		panic("createPlanFn not configured")
	}
	return m.createPlanFn(ctx, input)
}

func (m *mockService) GetPlan(ctx context.Context, id uuid.UUID) (service.Plan, error) {
	if m.getPlanFn == nil {
		panic("getPlanFn not configured")
	}
	return m.getPlanFn(ctx, id)
}

func (m *mockService) Activate(ctx context.Context, memberID uuid.UUID, input service.ActivateInput) (service.Subscription, error) {
	if m.activateFn == nil {
		panic("activateFn not configured")
	}
	return m.activateFn(ctx, memberID, input)
}

func (m *mockService) Cancel(ctx context.Context, id uuid.UUID) (service.Subscription, error) {
	if m.cancelFn == nil {
		panic("cancelFn not configured")
	}
	return m.cancelFn(ctx, id)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Subscription, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) ListForMember(ctx context.Context, memberID uuid.UUID) ([]service.Subscription, error) {
	if m.listForMemberFn == nil {
		panic("listForMemberFn not configured")
	}
	return m.listForMemberFn(ctx, memberID)
}

func serve(t *testing.T, svc service.Service, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(svc, zaptest.NewLogger(t)).Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreatePlanRendersPrice(t *testing.T) {
	t.Parallel()

	price, err := money.New(4990, "USD")
	require.NoError(t, err)

	svc := &mockService{
		createPlanFn: func(ctx context.Context, input service.CreatePlanInput) (service.Plan, error) {
			require.Equal(t, "49.90", input.Price)
			return service.Plan{ID: uuid.New(), Name: input.Name, DurationDays: 30, Price: price}, nil
		},
	}

	body := `{"name":"Monthly","duration_days":30,"price":"49.90","currency":"USD"}`
	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Location"))

	var plan planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Equal(t, "49.90", plan.Price)
	require.Equal(t, int64(4990), plan.PriceCents)
	require.Equal(t, "USD", plan.Currency)
}

func TestActivateConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		activateFn: func(ctx context.Context, memberID uuid.UUID, input service.ActivateInput) (service.Subscription, error) {
			return service.Subscription{}, apperr.Conflict("Subscription", "member already has an active subscription")
		},
	}

	body := `{"plan_id":"` + uuid.NewString() + `"}`
	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/members/"+uuid.NewString()+"/subscriptions", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestActivateRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	body := `{"plan_id":"` + uuid.NewString() + `","discount":true}`
	rec := serve(t, &mockService{}, httptest.NewRequest(http.MethodPost, "/members/"+uuid.NewString()+"/subscriptions", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		cancelFn: func(ctx context.Context, id uuid.UUID) (service.Subscription, error) {
			return service.Subscription{}, apperr.NotFound("Subscription")
		},
	}

	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/subscriptions/"+uuid.NewString()+"/cancel", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListForMember(t *testing.T) {
	t.Parallel()

	memberID := uuid.New()
	svc := &mockService{
		listForMemberFn: func(ctx context.Context, id uuid.UUID) ([]service.Subscription, error) {
			require.Equal(t, memberID, id)
			return []service.Subscription{{ID: uuid.New(), MemberID: id, Status: "active"}}, nil
		},
	}

	rec := serve(t, svc, httptest.NewRequest(http.MethodGet, "/members/"+memberID.String()+"/subscriptions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"active"`)
}
