package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

type mockRepository struct {
	createClassFn    func(ctx context.Context, name string, capacity int) (persistence.FitnessClass, error)
	createScheduleFn func(ctx context.Context, params persistence.CreateScheduleParams) (persistence.ClassSchedule, error)
	bookFn           func(ctx context.Context, scheduleID, memberID uuid.UUID) (persistence.ClassBooking, error)
	cancelBookingFn  func(ctx context.Context, bookingID uuid.UUID) (persistence.ClassBooking, error)
	listBookingsFn   func(ctx context.Context, filter persistence.Filter, scheduleID uuid.UUID) ([]persistence.ClassBooking, error)
	deleteClassFn    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepository) CreateClass(ctx context.Context, name string, capacity int) (persistence.FitnessClass, error) {
	if m.createClassFn == nil {
		panic("createClassFn not configured")
	}
	return m.createClassFn(ctx, name, capacity)
}

func (m *mockRepository) CreateSchedule(ctx context.Context, params persistence.CreateScheduleParams) (persistence.ClassSchedule, error) {
	if m.createScheduleFn == nil {
		panic("createScheduleFn not configured")
	}
	return m.createScheduleFn(ctx, params)
}

func (m *mockRepository) Book(ctx context.Context, scheduleID, memberID uuid.UUID) (persistence.ClassBooking, error) {
	if m.bookFn == nil {
		panic("bookFn not configured")
	}
	return m.bookFn(ctx, scheduleID, memberID)
}

func (m *mockRepository) CancelBooking(ctx context.Context, bookingID uuid.UUID) (persistence.ClassBooking, error) {
	if m.cancelBookingFn == nil {
		panic("cancelBookingFn not configured")
	}
	return m.cancelBookingFn(ctx, bookingID)
}

func (m *mockRepository) ListBookings(ctx context.Context, filter persistence.Filter, scheduleID uuid.UUID) ([]persistence.ClassBooking, error) {
	if m.listBookingsFn == nil {
		panic("listBookingsFn not configured")
	}
	return m.listBookingsFn(ctx, filter, scheduleID)
}

func (m *mockRepository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	if m.deleteClassFn == nil {
		panic("deleteClassFn not configured")
	}
	return m.deleteClassFn(ctx, id)
}

func TestCreateClassValidation(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}, nil).CreateClass(context.Background(), CreateClassInput{Name: " ", Capacity: 0})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindInvalidInput, appErr.Kind)
	require.Contains(t, appErr.Fields, "name")
	require.Contains(t, appErr.Fields, "capacity")
}

func TestCreateScheduleRejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	_, err := New(&mockRepository{}, nil).CreateSchedule(context.Background(), uuid.New(), CreateScheduleInput{
		StartsAt: start,
		EndsAt:   start.Add(-time.Hour),
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "ends_at")
}

func TestCreateScheduleNormalisesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, loc)
	capacity := 4
	classID := uuid.New()

	repository := &mockRepository{
		createScheduleFn: func(ctx context.Context, params persistence.CreateScheduleParams) (persistence.ClassSchedule, error) {
			require.Equal(t, classID, params.ClassID)
			require.Equal(t, time.UTC, params.StartsAt.Location())
			require.Equal(t, 4, *params.CapacityOverride)
			return persistence.ClassSchedule{ID: uuid.New(), ClassID: params.ClassID, StartsAt: params.StartsAt, EndsAt: params.EndsAt, CapacityOverride: params.CapacityOverride}, nil
		},
	}

	schedule, err := New(repository, nil).CreateSchedule(context.Background(), classID, CreateScheduleInput{
		StartsAt: start, EndsAt: start.Add(time.Hour), CapacityOverride: &capacity,
	})
	require.NoError(t, err)
	require.True(t, schedule.StartsAt.Equal(start))
}

func TestBookCapacityExceededIsCounted(t *testing.T) {
	t.Parallel()

	rec := metrics.New("test")
	repository := &mockRepository{
		bookFn: func(ctx context.Context, scheduleID, memberID uuid.UUID) (persistence.ClassBooking, error) {
			return persistence.ClassBooking{}, apperr.Conflict("ClassBooking", "capacity exceeded")
		},
	}

	_, err := New(repository, rec).Book(context.Background(), uuid.New(), BookInput{MemberID: uuid.New()})
	require.True(t, apperr.Is(err, apperr.KindDomainConflict))
	require.Equal(t, 1.0, rec.OperationCount("class_book", string(apperr.KindDomainConflict)))
}

func TestBookRequiresMember(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}, nil).Book(context.Background(), uuid.New(), BookInput{})
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestBookSuccess(t *testing.T) {
	t.Parallel()

	scheduleID := uuid.New()
	memberID := uuid.New()
	repository := &mockRepository{
		bookFn: func(ctx context.Context, sid, mid uuid.UUID) (persistence.ClassBooking, error) {
			return persistence.ClassBooking{ID: uuid.New(), ScheduleID: sid, MemberID: mid, Status: entity.BookingReserved}, nil
		},
	}

	booking, err := New(repository, nil).Book(context.Background(), scheduleID, BookInput{MemberID: memberID})
	require.NoError(t, err)
	require.Equal(t, scheduleID, booking.ScheduleID)
	require.Equal(t, entity.BookingReserved, booking.Status)
}
