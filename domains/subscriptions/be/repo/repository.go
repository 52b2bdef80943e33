package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Repository defines the persistence operations required by the subscriptions service.
type Repository interface {
	CreatePlan(ctx context.Context, params persistence.CreatePlanParams) (persistence.MembershipPlan, error)
	GetPlan(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.MembershipPlan, error)
	Activate(ctx context.Context, memberID, planID uuid.UUID, autoRenew bool) (persistence.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID) (persistence.Subscription, error)
	Get(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Subscription, error)
	ListForMember(ctx context.Context, filter persistence.Filter, memberID uuid.UUID) ([]persistence.Subscription, error)
}

// NewPostgresRepository returns the store itself; it already satisfies Repository.
func NewPostgresRepository(store *persistence.SubscriptionStore) Repository {
	if store == nil {
		panic("subscription store is required")
	}
	return store
}
