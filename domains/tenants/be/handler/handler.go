package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
	platformauth "github.com/zenGate-Global/palmyra-gym/platform/go/auth"
)

const (
	currentOperation      = "tenantsCurrent"
	createBranchOperation = "branchesCreate"
	listBranchesOperation = "branchesList"
)

// Handler exposes the caller's tenant and its branches. Tenants themselves
// are created with gymctl.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the tenant endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tenant", h.Current)
	r.Get("/branches", h.ListBranches)
	r.With(platformauth.RequireRole("admin")).Post("/branches", h.CreateBranch)
}

type tenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ShortID   string    `json:"short_id"`
	CreatedAt time.Time `json:"created_at"`
}

type branchResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Current implements GET /tenant
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Current(r.Context())
	if err != nil {
		api.Fail(w, r, h.logger, currentOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, tenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		ShortID:   t.ShortID,
		CreatedAt: t.CreatedAt,
	})
}

// CreateBranch implements POST /branches
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBranchInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createBranchOperation, err)
		return
	}

	b, err := h.svc.CreateBranch(r.Context(), nil, input)
	if err != nil {
		api.Fail(w, r, h.logger, createBranchOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toBranchResponse(b))
}

// ListBranches implements GET /branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.ListBranches(r.Context())
	if err != nil {
		api.Fail(w, r, h.logger, listBranchesOperation, err)
		return
	}

	items := make([]branchResponse, 0, len(branches))
	for _, b := range branches {
		items = append(items, toBranchResponse(b))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func toBranchResponse(b service.Branch) branchResponse {
	return branchResponse{ID: b.ID, TenantID: b.TenantID, Name: b.Name, CreatedAt: b.CreatedAt}
}
