package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
)

const (
	planColumns         = "id, tenant_id, name, duration_days, price_cents, currency, created_at"
	subscriptionColumns = "id, tenant_id, member_id, plan_id, starts_at, ends_at, status, auto_renew, created_at"
)

type MembershipPlan struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	DurationDays int
	Price        money.Money
	CreatedAt    time.Time
}

type Subscription struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	MemberID  uuid.UUID
	PlanID    uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Status    entity.SubscriptionStatus
	AutoRenew bool
	CreatedAt time.Time
}

type CreatePlanParams struct {
	Name         string
	DurationDays int
	Price        money.Money
}

// SubscriptionStore persists plans and subscriptions.
type SubscriptionStore struct {
	db *TenantDB
}

func NewSubscriptionStore(db *TenantDB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// CreatePlan adds a membership plan to the active tenant.
func (s *SubscriptionStore) CreatePlan(ctx context.Context, params CreatePlanParams) (MembershipPlan, error) {
	scope, _, err := requireTenant(ctx)
	if err != nil {
		return MembershipPlan{}, err
	}
	if strings.TrimSpace(params.Name) == "" {
		return MembershipPlan{}, apperr.InvalidField("name", "is required")
	}
	if params.Price.Currency() == "" {
		return MembershipPlan{}, apperr.InvalidField("currency", "is required")
	}

	var base entity.Base
	if err := entity.AssignIdentity(ctx, entity.MembershipPlan, &base); err != nil {
		return MembershipPlan{}, err
	}

	var out MembershipPlan
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO membership_plans (id, tenant_id, name, duration_days, price_cents, currency, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING %s
        `, planColumns),
			base.ID, base.TenantID, strings.TrimSpace(params.Name), params.DurationDays,
			params.Price.Amount(), params.Price.Currency(), s.db.Now(),
		)
		var err error
		out, err = scanPlan(row)
		return err
	})
	return out, mapError("create plan", entity.MembershipPlan.Name, err)
}

// GetPlan fetches a live plan visible through filter.
func (s *SubscriptionStore) GetPlan(ctx context.Context, filter Filter, id uuid.UUID) (MembershipPlan, error) {
	var out MembershipPlan
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = loadPlan(ctx, tx, filter, id)
		return err
	})
	return out, mapError("get plan", entity.MembershipPlan.Name, err)
}

func loadPlan(ctx context.Context, tx pgx.Tx, filter Filter, id uuid.UUID) (MembershipPlan, error) {
	var args Args
	where := filter.Clause(entity.MembershipPlan, "", &args)
	query := fmt.Sprintf(`SELECT %s FROM membership_plans WHERE %s AND id = %s AND deleted_at IS NULL`,
		planColumns, where, args.Add(id))
	plan, err := scanPlan(tx.QueryRow(ctx, query, args.Values()...))
	if err != nil {
		return MembershipPlan{}, mapError("load plan", entity.MembershipPlan.Name, err)
	}
	return plan, nil
}

// Activate starts a subscription of memberID to planID.
//
// The member row is locked first, then any active subscription of the member
// is read FOR UPDATE. Finding one is a DomainConflict and nothing is written.
// Otherwise the subscription runs from now for max(1, plan.duration_days) days.
func (s *SubscriptionStore) Activate(ctx context.Context, memberID, planID uuid.UUID, autoRenew bool) (Subscription, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Subscription{}, err
	}

	base := entity.Base{TenantID: tenantID}
	if err := entity.AssignIdentity(ctx, entity.Subscription, &base); err != nil {
		return Subscription{}, err
	}

	var out Subscription
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := lockMember(ctx, tx, tenantID, memberID); err != nil {
			return err
		}

		plan, err := loadPlan(ctx, tx, ForTenant(tenantID), planID)
		if err != nil {
			return err
		}

		var args Args
		where := ForTenant(tenantID).Clause(entity.Subscription, "", &args)
		query := fmt.Sprintf(`SELECT id FROM subscriptions WHERE %s AND member_id = %s AND status = %s LIMIT 1 FOR UPDATE`,
			where, args.Add(memberID), args.Add(string(entity.SubscriptionActive)))

		var existing uuid.UUID
		err = tx.QueryRow(ctx, query, args.Values()...).Scan(&existing)
		switch {
		case err == nil:
			return apperr.Conflict(entity.Subscription.Name, "member already has an active subscription")
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("check active subscription: %w", err)
		}

		now := s.db.Now()
		startsAt, endsAt := entity.SubscriptionWindow(now, plan.DurationDays)
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO subscriptions (id, tenant_id, member_id, plan_id, starts_at, ends_at, status, auto_renew, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING %s
        `, subscriptionColumns),
			base.ID, base.TenantID, memberID, planID, startsAt, endsAt,
			string(entity.SubscriptionActive), autoRenew, now,
		)
		out, err = scanSubscription(row)
		return err
	})
	return out, mapError("activate subscription", entity.Subscription.Name, err)
}

// Cancel moves an active subscription to cancelled, freeing the member for a new one.
func (s *SubscriptionStore) Cancel(ctx context.Context, id uuid.UUID) (Subscription, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Subscription{}, err
	}

	var out Subscription
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		current, err := lockSubscription(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if current.Status != entity.SubscriptionActive {
			return apperr.Conflict(entity.Subscription.Name, "subscription is not active")
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`UPDATE subscriptions SET status = $1 WHERE tenant_id = $2 AND id = $3 RETURNING %s`, subscriptionColumns),
			string(entity.SubscriptionCancelled), tenantID, id)
		out, err = scanSubscription(row)
		return err
	})
	return out, mapError("cancel subscription", entity.Subscription.Name, err)
}

// Get fetches a subscription visible through filter.
func (s *SubscriptionStore) Get(ctx context.Context, filter Filter, id uuid.UUID) (Subscription, error) {
	var out Subscription
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Subscription, "", &args)
		query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s AND id = %s`, subscriptionColumns, where, args.Add(id))

		var err error
		out, err = scanSubscription(tx.QueryRow(ctx, query, args.Values()...))
		return err
	})
	return out, mapError("get subscription", entity.Subscription.Name, err)
}

// ListForMember returns a member's subscriptions, newest first.
func (s *SubscriptionStore) ListForMember(ctx context.Context, filter Filter, memberID uuid.UUID) ([]Subscription, error) {
	out := []Subscription{}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Subscription, "", &args)
		query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s AND member_id = %s ORDER BY starts_at DESC, id DESC`,
			subscriptionColumns, where, args.Add(memberID))

		rows, err := tx.Query(ctx, query, args.Values()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			sub, err := scanSubscription(rows)
			if err != nil {
				return fmt.Errorf("scan subscription: %w", err)
			}
			out = append(out, sub)
		}
		return rows.Err()
	})
	return out, mapError("list subscriptions", entity.Subscription.Name, err)
}

func lockSubscription(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (Subscription, error) {
	var args Args
	where := ForTenant(tenantID).Clause(entity.Subscription, "", &args)
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s AND id = %s FOR UPDATE`, subscriptionColumns, where, args.Add(id))
	sub, err := scanSubscription(tx.QueryRow(ctx, query, args.Values()...))
	if err != nil {
		return Subscription{}, mapError("lock subscription", entity.Subscription.Name, err)
	}
	return sub, nil
}

func scanPlan(row pgx.Row) (MembershipPlan, error) {
	var p MembershipPlan
	var amount int64
	var currency string
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.DurationDays, &amount, &currency, &p.CreatedAt); err != nil {
		return MembershipPlan{}, err
	}
	price, err := money.New(amount, currency)
	if err != nil {
		return MembershipPlan{}, fmt.Errorf("plan %s price: %w", p.ID, err)
	}
	p.Price = price
	return p, nil
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var sub Subscription
	var status string
	if err := row.Scan(&sub.ID, &sub.TenantID, &sub.MemberID, &sub.PlanID, &sub.StartsAt, &sub.EndsAt, &status, &sub.AutoRenew, &sub.CreatedAt); err != nil {
		return Subscription{}, err
	}
	sub.Status = entity.SubscriptionStatus(status)
	return sub, nil
}
