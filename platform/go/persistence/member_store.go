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
)

const (
	memberColumns = "id, tenant_id, branch_id, code, full_name, email, status, created_at, deleted_at"
	// backstop for writers that bypass the advisory lock
	memberCodeAttempts = 3
	memberCodeKey      = "members_tenant_code_key"
)

// Member is a tenant's customer.
type Member struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	BranchID  *uuid.UUID
	Code      string
	FullName  string
	Email     *string
	Status    entity.MemberStatus
	CreatedAt time.Time
	DeletedAt *time.Time
}

type CreateMemberParams struct {
	BranchID *uuid.UUID
	FullName string
	Email    *string
	Status   entity.MemberStatus
}

type ListMembersParams struct {
	Page     int
	PageSize int
	Status   *entity.MemberStatus
}

type ListMembersResult struct {
	Members    []Member
	TotalItems int
}

// MemberStore persists members and generates their codes.
type MemberStore struct {
	db *TenantDB
}

func NewMemberStore(db *TenantDB) *MemberStore {
	return &MemberStore{db: db}
}

// Create inserts a member with the next MBR-<PFX>-<NNNNN> code of the active
// tenant. Code generation is serialised per tenant with a transaction-scoped
// advisory lock; the (tenant_id, code) unique constraint backs it up and a
// violation is retried with a fresh lookup.
func (s *MemberStore) Create(ctx context.Context, params CreateMemberParams) (Member, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Member{}, err
	}

	base := entity.Base{BranchID: params.BranchID}
	if err := entity.AssignIdentity(ctx, entity.Member, &base); err != nil {
		return Member{}, err
	}

	status := params.Status
	if status == "" {
		status = entity.MemberActive
	}
	prefix := entity.MemberCodePrefix(tenantID)

	var out Member
	for attempt := 1; ; attempt++ {
		err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "member_code:"+tenantID.String()); err != nil {
				return fmt.Errorf("lock member codes: %w", err)
			}

			latest, err := latestMemberCode(ctx, tx, tenantID, prefix)
			if err != nil {
				return err
			}
			code, err := entity.NextMemberCode(prefix, latest)
			if err != nil {
				return err
			}

			row := tx.QueryRow(ctx, fmt.Sprintf(`
                INSERT INTO members (id, tenant_id, branch_id, code, full_name, email, status, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                RETURNING %s
            `, memberColumns),
				base.ID, base.TenantID, base.BranchID, code, strings.TrimSpace(params.FullName),
				params.Email, string(status), s.db.Now(),
			)
			out, err = scanMember(row)
			return err
		})
		if err == nil || attempt >= memberCodeAttempts || !isUniqueViolation(err, memberCodeKey) {
			break
		}
	}

	return out, mapError("create member", entity.Member.Name, err)
}

// latestMemberCode finds the highest code carrying prefix across the whole
// tenant (all branches, soft-deleted members included). Codes are zero padded
// so the lexical maximum is the latest sequence.
func latestMemberCode(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, prefix string) (string, error) {
	var args Args
	where := ForTenant(tenantID).Clause(entity.Member, "", &args)
	query := fmt.Sprintf(`SELECT code FROM members WHERE %s AND code LIKE %s ORDER BY code DESC LIMIT 1`,
		where, args.Add(prefix+"%"))

	var code string
	err := tx.QueryRow(ctx, query, args.Values()...).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest member code: %w", err)
	}
	return code, nil
}

// Get fetches a live member visible through filter.
func (s *MemberStore) Get(ctx context.Context, filter Filter, id uuid.UUID) (Member, error) {
	var out Member
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Member, "", &args)
		query := fmt.Sprintf(`SELECT %s FROM members WHERE %s AND id = %s AND deleted_at IS NULL`,
			memberColumns, where, args.Add(id))

		var err error
		out, err = scanMember(tx.QueryRow(ctx, query, args.Values()...))
		return err
	})
	return out, mapError("get member", entity.Member.Name, err)
}

// List returns live members visible through filter, newest first.
func (s *MemberStore) List(ctx context.Context, filter Filter, params ListMembersParams) (ListMembersResult, error) {
	page, pageSize := normalizePage(params.Page, params.PageSize)

	var args Args
	whereParts := []string{filter.Clause(entity.Member, "", &args), "deleted_at IS NULL"}
	if params.Status != nil {
		whereParts = append(whereParts, "status = "+args.Add(string(*params.Status)))
	}
	whereSQL := strings.Join(whereParts, " AND ")

	result := ListMembersResult{Members: []Member{}}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM members WHERE %s", whereSQL)
		if err := tx.QueryRow(ctx, countQuery, args.Values()...).Scan(&result.TotalItems); err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if result.TotalItems == 0 {
			return nil
		}

		limit := args.Add(pageSize)
		offset := args.Add((page - 1) * pageSize)
		query := fmt.Sprintf(`
            SELECT %s FROM members
            WHERE %s
            ORDER BY created_at DESC, id DESC
            LIMIT %s OFFSET %s
        `, memberColumns, whereSQL, limit, offset)

		rows, err := tx.Query(ctx, query, args.Values()...)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			m, scanErr := scanMember(rows)
			if scanErr != nil {
				return fmt.Errorf("scan member: %w", scanErr)
			}
			result.Members = append(result.Members, m)
		}
		return rows.Err()
	})
	if err != nil {
		return ListMembersResult{}, mapError("list members", entity.Member.Name, err)
	}
	return result, nil
}

// UpdateStatus changes a live member's status.
func (s *MemberStore) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.MemberStatus) (Member, error) {
	switch status {
	case entity.MemberActive, entity.MemberInactive, entity.MemberSuspended:
	default:
		return Member{}, apperr.InvalidField("status", "unknown member status")
	}

	scope, _, err := requireTenant(ctx)
	if err != nil {
		return Member{}, err
	}

	var out Member
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		var args Args
		where := Scoped(scope).Clause(entity.Member, "", &args)
		query := fmt.Sprintf(`UPDATE members SET status = %s WHERE %s AND id = %s AND deleted_at IS NULL RETURNING %s`,
			args.Add(string(status)), where, args.Add(id), memberColumns)

		var err error
		out, err = scanMember(tx.QueryRow(ctx, query, args.Values()...))
		return err
	})
	return out, mapError("update member status", entity.Member.Name, err)
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	var status string
	if err := row.Scan(&m.ID, &m.TenantID, &m.BranchID, &m.Code, &m.FullName, &m.Email, &status, &m.CreatedAt, &m.DeletedAt); err != nil {
		return Member{}, err
	}
	m.Status = entity.MemberStatus(status)
	return m, nil
}
