package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Repository defines the persistence operations required by the attendance service.
type Repository interface {
	CheckIn(ctx context.Context, memberID uuid.UUID, branchID *uuid.UUID, source entity.AttendanceSource) (persistence.AttendanceLog, error)
	CheckOut(ctx context.Context, memberID uuid.UUID) (persistence.AttendanceLog, error)
	List(ctx context.Context, filter persistence.Filter, params persistence.ListAttendanceParams) ([]persistence.AttendanceLog, error)
}

// NewPostgresRepository returns the store itself; it already satisfies Repository.
func NewPostgresRepository(store *persistence.AttendanceStore) Repository {
	if store == nil {
		panic("attendance store is required")
	}
	return store
}
