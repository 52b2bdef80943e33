package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

const attendanceColumns = "id, tenant_id, member_id, branch_id, checked_in_at, checked_out_at, source"

// AttendanceLog is one check-in/check-out session.
type AttendanceLog struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	MemberID     uuid.UUID
	BranchID     uuid.UUID
	CheckedInAt  time.Time
	CheckedOutAt *time.Time
	Source       entity.AttendanceSource
}

type ListAttendanceParams struct {
	MemberID *uuid.UUID
	OpenOnly bool
	Limit    int
}

// AttendanceStore persists attendance sessions.
type AttendanceStore struct {
	db *TenantDB
}

func NewAttendanceStore(db *TenantDB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// CheckIn opens a session for memberID at branchID (or the active branch when nil).
//
// Inside one transaction the member row is locked, then any open session of
// the member is read FOR UPDATE. An open session is a DomainConflict and
// nothing is written.
func (s *AttendanceStore) CheckIn(ctx context.Context, memberID uuid.UUID, branchID *uuid.UUID, source entity.AttendanceSource) (AttendanceLog, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return AttendanceLog{}, err
	}

	base := entity.Base{BranchID: branchID}
	if err := entity.AssignIdentity(ctx, entity.AttendanceLog, &base); err != nil {
		return AttendanceLog{}, err
	}
	if base.BranchID == nil {
		return AttendanceLog{}, apperr.InvalidField("branch_id", "a branch is required to check in")
	}

	var out AttendanceLog
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := lockMember(ctx, tx, tenantID, memberID); err != nil {
			return err
		}
		if err := requireBranch(ctx, tx, tenantID, *base.BranchID); err != nil {
			return err
		}

		if _, err := openSession(ctx, tx, tenantID, memberID); err == nil {
			return apperr.Conflict(entity.AttendanceLog.Name, "open session exists")
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check open session: %w", err)
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO attendance_logs (id, tenant_id, member_id, branch_id, checked_in_at, checked_out_at, source)
            VALUES ($1, $2, $3, $4, $5, NULL, $6)
            RETURNING %s
        `, attendanceColumns),
			base.ID, base.TenantID, memberID, *base.BranchID, s.db.Now(), string(source),
		)
		var err error
		out, err = scanAttendance(row)
		return err
	})
	return out, mapError("check in", entity.AttendanceLog.Name, err)
}

// CheckOut closes the member's open session.
func (s *AttendanceStore) CheckOut(ctx context.Context, memberID uuid.UUID) (AttendanceLog, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return AttendanceLog{}, err
	}

	var out AttendanceLog
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := lockMember(ctx, tx, tenantID, memberID); err != nil {
			return err
		}

		open, err := openSession(ctx, tx, tenantID, memberID)
		if errors.Is(err, pgx.ErrNoRows) {
			notFound := apperr.NotFound(entity.AttendanceLog.Name)
			notFound.Message = "no open session"
			return notFound
		}
		if err != nil {
			return fmt.Errorf("load open session: %w", err)
		}

		checkedOut := s.db.Now()
		if checkedOut.Before(open.CheckedInAt) {
			checkedOut = open.CheckedInAt
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`UPDATE attendance_logs SET checked_out_at = $1 WHERE tenant_id = $2 AND id = $3 RETURNING %s`, attendanceColumns),
			checkedOut, tenantID, open.ID)
		out, err = scanAttendance(row)
		return err
	})
	return out, mapError("check out", entity.AttendanceLog.Name, err)
}

// openSession reads the member's open session FOR UPDATE.
func openSession(ctx context.Context, tx pgx.Tx, tenantID, memberID uuid.UUID) (AttendanceLog, error) {
	var args Args
	where := ForTenant(tenantID).Clause(entity.AttendanceLog, "", &args)
	query := fmt.Sprintf(`SELECT %s FROM attendance_logs WHERE %s AND member_id = %s AND checked_out_at IS NULL LIMIT 1 FOR UPDATE`,
		attendanceColumns, where, args.Add(memberID))
	return scanAttendance(tx.QueryRow(ctx, query, args.Values()...))
}

// List returns sessions visible through filter, newest first.
func (s *AttendanceStore) List(ctx context.Context, filter Filter, params ListAttendanceParams) ([]AttendanceLog, error) {
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	out := []AttendanceLog{}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.AttendanceLog, "", &args)
		if params.MemberID != nil {
			where += " AND member_id = " + args.Add(*params.MemberID)
		}
		if params.OpenOnly {
			where += " AND checked_out_at IS NULL"
		}
		query := fmt.Sprintf(`SELECT %s FROM attendance_logs WHERE %s ORDER BY checked_in_at DESC, id DESC LIMIT %s`,
			attendanceColumns, where, args.Add(limit))

		rows, err := tx.Query(ctx, query, args.Values()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			log, err := scanAttendance(rows)
			if err != nil {
				return fmt.Errorf("scan attendance: %w", err)
			}
			out = append(out, log)
		}
		return rows.Err()
	})
	return out, mapError("list attendance", entity.AttendanceLog.Name, err)
}

func scanAttendance(row pgx.Row) (AttendanceLog, error) {
	var a AttendanceLog
	var source string
	if err := row.Scan(&a.ID, &a.TenantID, &a.MemberID, &a.BranchID, &a.CheckedInAt, &a.CheckedOutAt, &source); err != nil {
		return AttendanceLog{}, err
	}
	a.Source = entity.AttendanceSource(source)
	return a, nil
}
