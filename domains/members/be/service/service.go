package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/members/be/repo"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

// Member represents the domain view of a member record.
type Member struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	BranchID  *uuid.UUID
	Code      string
	FullName  string
	Email     *string
	Status    entity.MemberStatus
	CreatedAt time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Page     int     `json:"page" validate:"gte=0"`
	PageSize int     `json:"page_size" validate:"gte=0,lte=100"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// ListResult wraps a page of members with pagination metadata.
type ListResult struct {
	Members    []Member
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to register a member.
// BranchID defaults to the active branch, then the caller's home branch.
type CreateInput struct {
	FullName string     `json:"full_name" validate:"required,max=200"`
	Email    *string    `json:"email" validate:"omitempty,email"`
	BranchID *uuid.UUID `json:"branch_id"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended"`
}

// Service defines the business operations for the members domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Member, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (Member, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (Member, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
}

// New constructs a members Service. rec may be nil.
func New(r repo.Repository, rec *metrics.Recorder) Service {
	if r == nil {
		panic("members repository is required")
	}
	return &service{repo: r, metrics: rec}
}

func (s *service) Create(ctx context.Context, input CreateInput) (member Member, err error) {
	defer func() { s.metrics.Operation("member_create", err) }()

	input.FullName = strings.TrimSpace(input.FullName)
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &email
		if email == "" {
			input.Email = nil
		}
	}
	if err := validation.Struct(input); err != nil {
		return Member{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateMemberParams{
		BranchID: input.BranchID,
		FullName: input.FullName,
		Email:    input.Email,
	})
	if err != nil {
		return Member{}, err
	}
	return mapMember(record), nil
}

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if err := validation.Struct(opts); err != nil {
		return ListResult{}, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	params := persistence.ListMembersParams{Page: page, PageSize: pageSize}
	if opts.Status != nil {
		status := entity.MemberStatus(*opts.Status)
		params.Status = &status
	}

	result, err := s.repo.List(ctx, persistence.ScopedFromContext(ctx), params)
	if err != nil {
		return ListResult{}, err
	}

	members := make([]Member, 0, len(result.Members))
	for _, record := range result.Members {
		members = append(members, mapMember(record))
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Members:    members,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Member, error) {
	record, err := s.repo.Get(ctx, persistence.ScopedFromContext(ctx), id)
	if err != nil {
		return Member{}, err
	}
	return mapMember(record), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (member Member, err error) {
	defer func() { s.metrics.Operation("member_update_status", err) }()

	if err := validation.Struct(input); err != nil {
		return Member{}, err
	}
	record, err := s.repo.UpdateStatus(ctx, id, entity.MemberStatus(input.Status))
	if err != nil {
		return Member{}, err
	}
	return mapMember(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.metrics.Operation("member_delete", err) }()
	return s.repo.SoftDelete(ctx, id)
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.metrics.Operation("member_restore", err) }()
	return s.repo.Restore(ctx, id)
}

func mapMember(record persistence.Member) Member {
	return Member{
		ID:        record.ID,
		TenantID:  record.TenantID,
		BranchID:  record.BranchID,
		Code:      record.Code,
		FullName:  record.FullName,
		Email:     record.Email,
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
	}
}
