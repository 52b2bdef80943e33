package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
)

const (
	createPlanOperation = "plansCreate"
	getPlanOperation    = "plansGet"
	activateOperation   = "subscriptionsActivate"
	cancelOperation     = "subscriptionsCancel"
	getOperation        = "subscriptionsGet"
	listOperation       = "subscriptionsList"
)

// Handler exposes membership plans and subscriptions over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("subscriptions service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the plan and subscription endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/plans", h.CreatePlan)
	r.Get("/plans/{planId}", h.GetPlan)
	r.Post("/members/{memberId}/subscriptions", h.Activate)
	r.Get("/members/{memberId}/subscriptions", h.ListForMember)
	r.Get("/subscriptions/{subscriptionId}", h.Get)
	r.Post("/subscriptions/{subscriptionId}/cancel", h.Cancel)
}

type planResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DurationDays int       `json:"duration_days"`
	Price        string    `json:"price"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
}

type subscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	AutoRenew bool      `json:"auto_renew"`
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var input service.CreatePlanInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createPlanOperation, err)
		return
	}

	plan, err := h.svc.CreatePlan(r.Context(), input)
	if err != nil {
		api.Fail(w, r, h.logger, createPlanOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/plans/"+plan.ID.String())
	api.WriteJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "planId")
	if err != nil {
		api.Fail(w, r, h.logger, getPlanOperation, err)
		return
	}

	plan, err := h.svc.GetPlan(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, getPlanOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	memberID, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, activateOperation, err)
		return
	}

	var input service.ActivateInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, activateOperation, err)
		return
	}

	sub, err := h.svc.Activate(r.Context(), memberID, input)
	if err != nil {
		api.Fail(w, r, h.logger, activateOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/subscriptions/"+sub.ID.String())
	api.WriteJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (h *Handler) ListForMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, listOperation, err)
		return
	}

	subs, err := h.svc.ListForMember(r.Context(), memberID)
	if err != nil {
		api.Fail(w, r, h.logger, listOperation, err)
		return
	}

	items := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, toSubscriptionResponse(sub))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "subscriptionId")
	if err != nil {
		api.Fail(w, r, h.logger, getOperation, err)
		return
	}

	sub, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, getOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "subscriptionId")
	if err != nil {
		api.Fail(w, r, h.logger, cancelOperation, err)
		return
	}

	sub, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, cancelOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func toPlanResponse(plan service.Plan) planResponse {
	return planResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		DurationDays: plan.DurationDays,
		Price:        plan.Price.Major(),
		PriceCents:   plan.Price.Amount(),
		Currency:     plan.Price.Currency(),
		CreatedAt:    plan.CreatedAt,
	}
}

func toSubscriptionResponse(sub service.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        sub.ID,
		MemberID:  sub.MemberID,
		PlanID:    sub.PlanID,
		StartsAt:  sub.StartsAt,
		EndsAt:    sub.EndsAt,
		Status:    string(sub.Status),
		AutoRenew: sub.AutoRenew,
	}
}
