package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

const (
	classColumns    = "id, tenant_id, name, capacity, created_at"
	scheduleColumns = "id, tenant_id, branch_id, class_id, starts_at, ends_at, capacity_override, created_at"
	bookingColumns  = "id, tenant_id, schedule_id, member_id, status, created_at"
)

type FitnessClass struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Capacity  int
	CreatedAt time.Time
}

type ClassSchedule struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	BranchID         uuid.UUID
	ClassID          uuid.UUID
	StartsAt         time.Time
	EndsAt           time.Time
	CapacityOverride *int
	CreatedAt        time.Time
}

type ClassBooking struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ScheduleID uuid.UUID
	MemberID   uuid.UUID
	Status     entity.BookingStatus
	CreatedAt  time.Time
}

type CreateScheduleParams struct {
	ClassID          uuid.UUID
	BranchID         *uuid.UUID
	StartsAt         time.Time
	EndsAt           time.Time
	CapacityOverride *int
}

// ClassStore persists classes, their schedules and bookings.
type ClassStore struct {
	db *TenantDB
}

func NewClassStore(db *TenantDB) *ClassStore {
	return &ClassStore{db: db}
}

func (s *ClassStore) CreateClass(ctx context.Context, name string, capacity int) (FitnessClass, error) {
	scope, _, err := requireTenant(ctx)
	if err != nil {
		return FitnessClass{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return FitnessClass{}, apperr.InvalidField("name", "is required")
	}
	if capacity <= 0 {
		return FitnessClass{}, apperr.InvalidField("capacity", "must be greater than zero")
	}

	var base entity.Base
	if err := entity.AssignIdentity(ctx, entity.FitnessClass, &base); err != nil {
		return FitnessClass{}, err
	}

	var out FitnessClass
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO fitness_classes (id, tenant_id, name, capacity, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING %s
        `, classColumns), base.ID, base.TenantID, name, capacity, s.db.Now())
		return row.Scan(&out.ID, &out.TenantID, &out.Name, &out.Capacity, &out.CreatedAt)
	})
	return out, mapError("create class", entity.FitnessClass.Name, err)
}

// CreateSchedule plans one session of a class at a branch (the active branch when none is given).
func (s *ClassStore) CreateSchedule(ctx context.Context, params CreateScheduleParams) (ClassSchedule, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return ClassSchedule{}, err
	}
	if !params.EndsAt.After(params.StartsAt) {
		return ClassSchedule{}, apperr.InvalidField("ends_at", "must be after starts_at")
	}
	if params.CapacityOverride != nil && *params.CapacityOverride <= 0 {
		return ClassSchedule{}, apperr.InvalidField("capacity_override", "must be greater than zero")
	}

	base := entity.Base{BranchID: params.BranchID}
	if err := entity.AssignIdentity(ctx, entity.ClassSchedule, &base); err != nil {
		return ClassSchedule{}, err
	}
	if base.BranchID == nil {
		return ClassSchedule{}, apperr.InvalidField("branch_id", "a branch is required to schedule a class")
	}

	var out ClassSchedule
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := requireBranch(ctx, tx, tenantID, *base.BranchID); err != nil {
			return err
		}

		var classID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM fitness_classes WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
			tenantID, params.ClassID).Scan(&classID)
		if err != nil {
			return mapError("load class", entity.FitnessClass.Name, err)
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO class_schedules (id, tenant_id, branch_id, class_id, starts_at, ends_at, capacity_override, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING %s
        `, scheduleColumns),
			base.ID, base.TenantID, *base.BranchID, classID,
			params.StartsAt.UTC(), params.EndsAt.UTC(), params.CapacityOverride, s.db.Now(),
		)
		out, err = scanSchedule(row)
		return err
	})
	return out, mapError("create schedule", entity.ClassSchedule.Name, err)
}

// Book reserves a place for memberID on scheduleID.
//
// The schedule row is locked FOR UPDATE before counting, so concurrent
// bookings for one schedule run one after another and the count each sees
// includes every booking committed before it.
func (s *ClassStore) Book(ctx context.Context, scheduleID, memberID uuid.UUID) (ClassBooking, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return ClassBooking{}, err
	}

	base := entity.Base{TenantID: tenantID}
	if err := entity.AssignIdentity(ctx, entity.ClassBooking, &base); err != nil {
		return ClassBooking{}, err
	}

	var out ClassBooking
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		var args Args
		where := Scoped(scope).Clause(entity.ClassSchedule, "s", &args)
		query := fmt.Sprintf(`
            SELECT COALESCE(s.capacity_override, c.capacity)
            FROM class_schedules s
            JOIN fitness_classes c ON c.tenant_id = s.tenant_id AND c.id = s.class_id
            WHERE %s AND s.id = %s
            FOR UPDATE OF s
        `, where, args.Add(scheduleID))

		var capacity int
		if err := tx.QueryRow(ctx, query, args.Values()...).Scan(&capacity); err != nil {
			return mapError("lock schedule", entity.ClassSchedule.Name, err)
		}

		var memberOK uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM members WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
			tenantID, memberID).Scan(&memberOK)
		if err != nil {
			return mapError("load member", entity.Member.Name, err)
		}

		var taken int
		var mine bool
		err = tx.QueryRow(ctx, `
            SELECT count(*), COALESCE(bool_or(member_id = $3), FALSE)
            FROM class_bookings
            WHERE tenant_id = $1 AND schedule_id = $2 AND status <> 'cancelled'
        `, tenantID, scheduleID, memberID).Scan(&taken, &mine)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if mine {
			return apperr.Conflict(entity.ClassBooking.Name, "member already booked")
		}
		if taken >= capacity {
			return apperr.Conflict(entity.ClassBooking.Name, "capacity exceeded")
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO class_bookings (id, tenant_id, schedule_id, member_id, status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING %s
        `, bookingColumns),
			base.ID, base.TenantID, scheduleID, memberID, string(entity.BookingReserved), s.db.Now(),
		)
		out, err = scanBooking(row)
		return err
	})
	return out, mapError("book class", entity.ClassBooking.Name, err)
}

// CancelBooking moves a reserved booking to cancelled, releasing its place.
func (s *ClassStore) CancelBooking(ctx context.Context, bookingID uuid.UUID) (ClassBooking, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return ClassBooking{}, err
	}

	var out ClassBooking
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		current, err := scanBooking(tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM class_bookings WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, bookingColumns),
			tenantID, bookingID))
		if err != nil {
			return mapError("lock booking", entity.ClassBooking.Name, err)
		}
		if current.Status != entity.BookingReserved {
			return apperr.Conflict(entity.ClassBooking.Name, "only reserved bookings can be cancelled")
		}

		out, err = scanBooking(tx.QueryRow(ctx,
			fmt.Sprintf(`UPDATE class_bookings SET status = $1 WHERE tenant_id = $2 AND id = $3 RETURNING %s`, bookingColumns),
			string(entity.BookingCancelled), tenantID, bookingID))
		return err
	})
	return out, mapError("cancel booking", entity.ClassBooking.Name, err)
}

// ListBookings returns the bookings of a schedule visible through filter.
func (s *ClassStore) ListBookings(ctx context.Context, filter Filter, scheduleID uuid.UUID) ([]ClassBooking, error) {
	out := []ClassBooking{}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.ClassBooking, "", &args)
		query := fmt.Sprintf(`SELECT %s FROM class_bookings WHERE %s AND schedule_id = %s ORDER BY created_at, id`,
			bookingColumns, where, args.Add(scheduleID))

		rows, err := tx.Query(ctx, query, args.Values()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBooking(rows)
			if err != nil {
				return fmt.Errorf("scan booking: %w", err)
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, mapError("list bookings", entity.ClassBooking.Name, err)
}

func scanSchedule(row pgx.Row) (ClassSchedule, error) {
	var s ClassSchedule
	err := row.Scan(&s.ID, &s.TenantID, &s.BranchID, &s.ClassID, &s.StartsAt, &s.EndsAt, &s.CapacityOverride, &s.CreatedAt)
	return s, err
}

func scanBooking(row pgx.Row) (ClassBooking, error) {
	var b ClassBooking
	var status string
	if err := row.Scan(&b.ID, &b.TenantID, &b.ScheduleID, &b.MemberID, &status, &b.CreatedAt); err != nil {
		return ClassBooking{}, err
	}
	b.Status = entity.BookingStatus(status)
	return b, nil
}
