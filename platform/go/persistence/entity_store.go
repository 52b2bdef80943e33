package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

// EntityStore applies soft delete and restore to any kind that supports it.
// Financial kinds are refused by the immutability guard before SQL is issued.
type EntityStore struct {
	db *TenantDB
}

func NewEntityStore(db *TenantDB) *EntityStore {
	return &EntityStore{db: db}
}

// SoftDelete marks a live row of kind as deleted.
func (s *EntityStore) SoftDelete(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if err := entity.GuardDelete(kind); err != nil {
		return err
	}
	return s.setDeleted(ctx, kind, id, true)
}

// Restore clears the deleted marker of a soft-deleted row of kind.
func (s *EntityStore) Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if err := entity.GuardRestore(kind); err != nil {
		return err
	}
	return s.setDeleted(ctx, kind, id, false)
}

func (s *EntityStore) setDeleted(ctx context.Context, kind entity.Kind, id uuid.UUID, deleted bool) error {
	if !kind.SoftDeletes {
		return apperr.Invalid(kind.Name+" does not support soft delete", nil)
	}
	table, err := kindTable(kind)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", kind.Name, err)
	}

	scope, _, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	return mapError("soft delete", kind.Name, s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		var args Args
		where := Scoped(scope).Clause(kind, "", &args)

		set, state := "deleted_at = "+args.Add(s.db.Now()), "deleted_at IS NULL"
		if !deleted {
			set, state = "deleted_at = NULL", "deleted_at IS NOT NULL"
		}
		query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s AND id = %s AND %s`,
			table, set, where, args.Add(id), state)

		tag, err := tx.Exec(ctx, query, args.Values()...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(kind.Name)
		}
		return nil
	}))
}
