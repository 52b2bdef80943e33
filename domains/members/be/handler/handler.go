package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/members/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

const (
	createOperation       = "membersCreate"
	listOperation         = "membersList"
	getOperation          = "membersGet"
	updateStatusOperation = "membersUpdateStatus"
	deleteOperation       = "membersDelete"
	restoreOperation      = "membersRestore"
)

// Handler exposes the members service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("members service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the member endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/members", h.Create)
	r.Get("/members", h.List)
	r.Get("/members/{memberId}", h.Get)
	r.Patch("/members/{memberId}", h.UpdateStatus)
	r.Delete("/members/{memberId}", h.Delete)
	r.Post("/members/{memberId}/restore", h.Restore)
}

type memberResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	Code      string     `json:"code"`
	FullName  string     `json:"full_name"`
	Email     *string    `json:"email,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type listResponse struct {
	Items      []memberResponse `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalItems int              `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createOperation, err)
		return
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.Fail(w, r, h.logger, createOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/members/"+created.ID.String())
	api.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := buildListOptions(r)
	if err != nil {
		api.Fail(w, r, h.logger, listOperation, err)
		return
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		api.Fail(w, r, h.logger, listOperation, err)
		return
	}

	items := make([]memberResponse, 0, len(result.Members))
	for _, member := range result.Members {
		items = append(items, toResponse(member))
	}

	api.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, getOperation, err)
		return
	}

	member, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, getOperation, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(member))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, updateStatusOperation, err)
		return
	}

	var input service.UpdateStatusInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, updateStatusOperation, err)
		return
	}

	updated, err := h.svc.UpdateStatus(r.Context(), id, input)
	if err != nil {
		api.Fail(w, r, h.logger, updateStatusOperation, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, deleteOperation, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.Fail(w, r, h.logger, deleteOperation, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, restoreOperation, err)
		return
	}

	if err := h.svc.Restore(r.Context(), id); err != nil {
		api.Fail(w, r, h.logger, restoreOperation, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func buildListOptions(r *http.Request) (service.ListOptions, error) {
	query := r.URL.Query()
	opts := service.ListOptions{}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apperr.InvalidField("page", "must be an integer")
		}
		opts.Page = page
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apperr.InvalidField("page_size", "must be an integer")
		}
		opts.PageSize = size
	}
	if raw := query.Get("status"); raw != "" {
		opts.Status = &raw
	}

	return opts, nil
}

func toResponse(member service.Member) memberResponse {
	return memberResponse{
		ID:        member.ID,
		TenantID:  member.TenantID,
		BranchID:  member.BranchID,
		Code:      member.Code,
		FullName:  member.FullName,
		Email:     member.Email,
		Status:    string(member.Status),
		CreatedAt: member.CreatedAt,
	}
}
