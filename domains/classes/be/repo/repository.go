package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Repository defines the persistence operations required by the classes service.
type Repository interface {
	CreateClass(ctx context.Context, name string, capacity int) (persistence.FitnessClass, error)
	CreateSchedule(ctx context.Context, params persistence.CreateScheduleParams) (persistence.ClassSchedule, error)
	Book(ctx context.Context, scheduleID, memberID uuid.UUID) (persistence.ClassBooking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (persistence.ClassBooking, error)
	ListBookings(ctx context.Context, filter persistence.Filter, scheduleID uuid.UUID) ([]persistence.ClassBooking, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	*persistence.ClassStore
	entities *persistence.EntityStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(classes *persistence.ClassStore, entities *persistence.EntityStore) Repository {
	if classes == nil || entities == nil {
		panic("class and entity stores are required")
	}
	return &postgresRepository{ClassStore: classes, entities: entities}
}

func (r *postgresRepository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	return r.entities.SoftDelete(ctx, entity.FitnessClass, id)
}
