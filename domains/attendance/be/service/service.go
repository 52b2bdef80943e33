package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/attendance/be/repo"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

// Visit is one check-in/check-out session.
type Visit struct {
	ID           uuid.UUID
	MemberID     uuid.UUID
	BranchID     uuid.UUID
	CheckedInAt  time.Time
	CheckedOutAt *time.Time
	Source       entity.AttendanceSource
}

type CheckInInput struct {
	BranchID *uuid.UUID `json:"branch_id"`
	Source   string     `json:"source" validate:"omitempty,oneof=manual qr kiosk api"`
}

type ListOptions struct {
	MemberID *uuid.UUID
	OpenOnly bool
	Limit    int `validate:"gte=0,lte=500"`
}

// Service defines the attendance operations.
type Service interface {
	CheckIn(ctx context.Context, memberID uuid.UUID, input CheckInInput) (Visit, error)
	CheckOut(ctx context.Context, memberID uuid.UUID) (Visit, error)
	List(ctx context.Context, opts ListOptions) ([]Visit, error)
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
}

// New constructs an attendance Service. rec may be nil.
func New(r repo.Repository, rec *metrics.Recorder) Service {
	if r == nil {
		panic("attendance repository is required")
	}
	return &service{repo: r, metrics: rec}
}

func (s *service) CheckIn(ctx context.Context, memberID uuid.UUID, input CheckInInput) (visit Visit, err error) {
	defer func() { s.metrics.Operation("check_in", err) }()

	if err := validation.Struct(input); err != nil {
		return Visit{}, err
	}
	source, err := entity.ParseAttendanceSource(input.Source)
	if err != nil {
		return Visit{}, err
	}

	record, err := s.repo.CheckIn(ctx, memberID, input.BranchID, source)
	if err != nil {
		return Visit{}, err
	}
	return mapVisit(record), nil
}

func (s *service) CheckOut(ctx context.Context, memberID uuid.UUID) (visit Visit, err error) {
	defer func() { s.metrics.Operation("check_out", err) }()

	record, err := s.repo.CheckOut(ctx, memberID)
	if err != nil {
		return Visit{}, err
	}
	return mapVisit(record), nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]Visit, error) {
	if err := validation.Struct(opts); err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, persistence.ScopedFromContext(ctx), persistence.ListAttendanceParams{
		MemberID: opts.MemberID,
		OpenOnly: opts.OpenOnly,
		Limit:    opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	visits := make([]Visit, 0, len(records))
	for _, record := range records {
		visits = append(visits, mapVisit(record))
	}
	return visits, nil
}

func mapVisit(record persistence.AttendanceLog) Visit {
	return Visit{
		ID:           record.ID,
		MemberID:     record.MemberID,
		BranchID:     record.BranchID,
		CheckedInAt:  record.CheckedInAt,
		CheckedOutAt: record.CheckedOutAt,
		Source:       record.Source,
	}
}
