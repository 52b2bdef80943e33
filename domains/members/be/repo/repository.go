package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Repository defines the persistence operations required by the members service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateMemberParams) (persistence.Member, error)
	List(ctx context.Context, filter persistence.Filter, params persistence.ListMembersParams) (persistence.ListMembersResult, error)
	Get(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Member, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.MemberStatus) (persistence.Member, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	members  *persistence.MemberStore
	entities *persistence.EntityStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(members *persistence.MemberStore, entities *persistence.EntityStore) Repository {
	if members == nil || entities == nil {
		panic("member and entity stores are required")
	}
	return &postgresRepository{members: members, entities: entities}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateMemberParams) (persistence.Member, error) {
	return r.members.Create(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, filter persistence.Filter, params persistence.ListMembersParams) (persistence.ListMembersResult, error) {
	return r.members.List(ctx, filter, params)
}

func (r *postgresRepository) Get(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Member, error) {
	return r.members.Get(ctx, filter, id)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.MemberStatus) (persistence.Member, error) {
	return r.members.UpdateStatus(ctx, id, status)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.entities.SoftDelete(ctx, entity.Member, id)
}

func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.entities.Restore(ctx, entity.Member, id)
}
