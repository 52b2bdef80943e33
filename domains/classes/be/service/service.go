package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/classes/be/repo"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

type Class struct {
	ID       uuid.UUID
	Name     string
	Capacity int
}

type Schedule struct {
	ID               uuid.UUID
	ClassID          uuid.UUID
	BranchID         uuid.UUID
	StartsAt         time.Time
	EndsAt           time.Time
	CapacityOverride *int
}

type Booking struct {
	ID         uuid.UUID
	ScheduleID uuid.UUID
	MemberID   uuid.UUID
	Status     entity.BookingStatus
	CreatedAt  time.Time
}

type CreateClassInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Capacity int    `json:"capacity" validate:"gte=1,lte=1000"`
}

type CreateScheduleInput struct {
	BranchID         *uuid.UUID `json:"branch_id"`
	StartsAt         time.Time  `json:"starts_at" validate:"required"`
	EndsAt           time.Time  `json:"ends_at" validate:"required,gtfield=StartsAt"`
	CapacityOverride *int       `json:"capacity_override" validate:"omitempty,gte=1,lte=1000"`
}

type BookInput struct {
	MemberID uuid.UUID `json:"member_id" validate:"required"`
}

// Service defines the class, schedule and booking operations.
type Service interface {
	CreateClass(ctx context.Context, input CreateClassInput) (Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
	CreateSchedule(ctx context.Context, classID uuid.UUID, input CreateScheduleInput) (Schedule, error)
	Book(ctx context.Context, scheduleID uuid.UUID, input BookInput) (Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (Booking, error)
	ListBookings(ctx context.Context, scheduleID uuid.UUID) ([]Booking, error)
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
}

// New constructs a classes Service. rec may be nil.
func New(r repo.Repository, rec *metrics.Recorder) Service {
	if r == nil {
		panic("classes repository is required")
	}
	return &service{repo: r, metrics: rec}
}

func (s *service) CreateClass(ctx context.Context, input CreateClassInput) (class Class, err error) {
	defer func() { s.metrics.Operation("class_create", err) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Class{}, err
	}
	record, err := s.repo.CreateClass(ctx, input.Name, input.Capacity)
	if err != nil {
		return Class{}, err
	}
	return Class{ID: record.ID, Name: record.Name, Capacity: record.Capacity}, nil
}

func (s *service) DeleteClass(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.metrics.Operation("class_delete", err) }()
	return s.repo.DeleteClass(ctx, id)
}

func (s *service) CreateSchedule(ctx context.Context, classID uuid.UUID, input CreateScheduleInput) (schedule Schedule, err error) {
	defer func() { s.metrics.Operation("schedule_create", err) }()

	if err := validation.Struct(input); err != nil {
		return Schedule{}, err
	}
	if classID == uuid.Nil {
		return Schedule{}, apperr.InvalidField("class_id", "is required")
	}

	record, err := s.repo.CreateSchedule(ctx, persistence.CreateScheduleParams{
		ClassID:          classID,
		BranchID:         input.BranchID,
		StartsAt:         input.StartsAt.UTC(),
		EndsAt:           input.EndsAt.UTC(),
		CapacityOverride: input.CapacityOverride,
	})
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{
		ID:               record.ID,
		ClassID:          record.ClassID,
		BranchID:         record.BranchID,
		StartsAt:         record.StartsAt,
		EndsAt:           record.EndsAt,
		CapacityOverride: record.CapacityOverride,
	}, nil
}

func (s *service) Book(ctx context.Context, scheduleID uuid.UUID, input BookInput) (booking Booking, err error) {
	defer func() { s.metrics.Operation("class_book", err) }()

	if err := validation.Struct(input); err != nil {
		return Booking{}, err
	}
	record, err := s.repo.Book(ctx, scheduleID, input.MemberID)
	if err != nil {
		return Booking{}, err
	}
	return mapBooking(record), nil
}

func (s *service) CancelBooking(ctx context.Context, bookingID uuid.UUID) (booking Booking, err error) {
	defer func() { s.metrics.Operation("booking_cancel", err) }()

	record, err := s.repo.CancelBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, err
	}
	return mapBooking(record), nil
}

func (s *service) ListBookings(ctx context.Context, scheduleID uuid.UUID) ([]Booking, error) {
	records, err := s.repo.ListBookings(ctx, persistence.ScopedFromContext(ctx), scheduleID)
	if err != nil {
		return nil, err
	}
	bookings := make([]Booking, 0, len(records))
	for _, record := range records {
		bookings = append(bookings, mapBooking(record))
	}
	return bookings, nil
}

func mapBooking(record persistence.ClassBooking) Booking {
	return Booking{
		ID:         record.ID,
		ScheduleID: record.ScheduleID,
		MemberID:   record.MemberID,
		Status:     record.Status,
		CreatedAt:  record.CreatedAt,
	}
}
