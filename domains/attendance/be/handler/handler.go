package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/attendance/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

const (
	checkInOperation  = "attendanceCheckIn"
	checkOutOperation = "attendanceCheckOut"
	listOperation     = "attendanceList"
)

// Handler exposes check-in and check-out over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("attendance service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the attendance endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/members/{memberId}/check-in", h.CheckIn)
	r.Post("/members/{memberId}/check-out", h.CheckOut)
	r.Get("/attendance", h.List)
}

type visitResponse struct {
	ID           uuid.UUID  `json:"id"`
	MemberID     uuid.UUID  `json:"member_id"`
	BranchID     uuid.UUID  `json:"branch_id"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	Source       string     `json:"source"`
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	memberID, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, checkInOperation, err)
		return
	}

	// the body is optional: an empty request checks in at the active branch
	var input service.CheckInInput
	if r.ContentLength != 0 {
		if err := api.Decode(r, &input); err != nil {
			api.Fail(w, r, h.logger, checkInOperation, err)
			return
		}
	}

	visit, err := h.svc.CheckIn(r.Context(), memberID, input)
	if err != nil {
		api.Fail(w, r, h.logger, checkInOperation, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, toResponse(visit))
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	memberID, err := api.PathUUID(r, "memberId")
	if err != nil {
		api.Fail(w, r, h.logger, checkOutOperation, err)
		return
	}

	visit, err := h.svc.CheckOut(r.Context(), memberID)
	if err != nil {
		api.Fail(w, r, h.logger, checkOutOperation, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(visit))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := service.ListOptions{OpenOnly: query.Get("open") == "true"}

	if raw := query.Get("member_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.Fail(w, r, h.logger, listOperation, apperr.InvalidField("member_id", "must be a UUID"))
			return
		}
		opts.MemberID = &id
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, r, h.logger, listOperation, apperr.InvalidField("limit", "must be an integer"))
			return
		}
		opts.Limit = limit
	}

	visits, err := h.svc.List(r.Context(), opts)
	if err != nil {
		api.Fail(w, r, h.logger, listOperation, err)
		return
	}

	items := make([]visitResponse, 0, len(visits))
	for _, visit := range visits {
		items = append(items, toResponse(visit))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func toResponse(visit service.Visit) visitResponse {
	return visitResponse{
		ID:           visit.ID,
		MemberID:     visit.MemberID,
		BranchID:     visit.BranchID,
		CheckedInAt:  visit.CheckedInAt,
		CheckedOutAt: visit.CheckedOutAt,
		Source:       string(visit.Source),
	}
}
