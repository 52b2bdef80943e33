package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/repo"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

type Plan struct {
	ID           uuid.UUID
	Name         string
	DurationDays int
	Price        money.Money
	CreatedAt    time.Time
}

type Subscription struct {
	ID        uuid.UUID
	MemberID  uuid.UUID
	PlanID    uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Status    entity.SubscriptionStatus
	AutoRenew bool
}

// CreatePlanInput carries the price as a major-unit decimal string, e.g. "49.90".
type CreatePlanInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	DurationDays int    `json:"duration_days" validate:"gte=0,lte=3660"`
	Price        string `json:"price" validate:"required"`
	Currency     string `json:"currency" validate:"required,len=3"`
}

type ActivateInput struct {
	PlanID    uuid.UUID `json:"plan_id" validate:"required"`
	AutoRenew bool      `json:"auto_renew"`
}

// Service defines the plan and subscription operations.
type Service interface {
	CreatePlan(ctx context.Context, input CreatePlanInput) (Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	Activate(ctx context.Context, memberID uuid.UUID, input ActivateInput) (Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID) (Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (Subscription, error)
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]Subscription, error)
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
}

// New constructs a subscriptions Service. rec may be nil.
func New(r repo.Repository, rec *metrics.Recorder) Service {
	if r == nil {
		panic("subscriptions repository is required")
	}
	return &service{repo: r, metrics: rec}
}

func (s *service) CreatePlan(ctx context.Context, input CreatePlanInput) (plan Plan, err error) {
	defer func() { s.metrics.Operation("plan_create", err) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Plan{}, err
	}
	price, err := money.Parse(input.Price, input.Currency)
	if err != nil {
		return Plan{}, err
	}

	record, err := s.repo.CreatePlan(ctx, persistence.CreatePlanParams{
		Name:         input.Name,
		DurationDays: input.DurationDays,
		Price:        price,
	})
	if err != nil {
		return Plan{}, err
	}
	return mapPlan(record), nil
}

func (s *service) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	record, err := s.repo.GetPlan(ctx, persistence.ScopedFromContext(ctx), id)
	if err != nil {
		return Plan{}, err
	}
	return mapPlan(record), nil
}

func (s *service) Activate(ctx context.Context, memberID uuid.UUID, input ActivateInput) (sub Subscription, err error) {
	defer func() { s.metrics.Operation("subscription_activate", err) }()

	if err := validation.Struct(input); err != nil {
		return Subscription{}, err
	}
	record, err := s.repo.Activate(ctx, memberID, input.PlanID, input.AutoRenew)
	if err != nil {
		return Subscription{}, err
	}
	return mapSubscription(record), nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (sub Subscription, err error) {
	defer func() { s.metrics.Operation("subscription_cancel", err) }()

	record, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	return mapSubscription(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Subscription, error) {
	record, err := s.repo.Get(ctx, persistence.ScopedFromContext(ctx), id)
	if err != nil {
		return Subscription{}, err
	}
	return mapSubscription(record), nil
}

func (s *service) ListForMember(ctx context.Context, memberID uuid.UUID) ([]Subscription, error) {
	records, err := s.repo.ListForMember(ctx, persistence.ScopedFromContext(ctx), memberID)
	if err != nil {
		return nil, err
	}
	subs := make([]Subscription, 0, len(records))
	for _, record := range records {
		subs = append(subs, mapSubscription(record))
	}
	return subs, nil
}

func mapPlan(record persistence.MembershipPlan) Plan {
	return Plan{
		ID:           record.ID,
		Name:         record.Name,
		DurationDays: record.DurationDays,
		Price:        record.Price,
		CreatedAt:    record.CreatedAt,
	}
}

func mapSubscription(record persistence.Subscription) Subscription {
	return Subscription{
		ID:        record.ID,
		MemberID:  record.MemberID,
		PlanID:    record.PlanID,
		StartsAt:  record.StartsAt,
		EndsAt:    record.EndsAt,
		Status:    record.Status,
		AutoRenew: record.AutoRenew,
	}
}
