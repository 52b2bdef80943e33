package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/classes/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
)

const (
	createClassOperation    = "classesCreate"
	deleteClassOperation    = "classesDelete"
	createScheduleOperation = "schedulesCreate"
	bookOperation           = "bookingsCreate"
	cancelBookingOperation  = "bookingsCancel"
	listBookingsOperation   = "bookingsList"
)

// Handler exposes classes, schedules and bookings over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("classes service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the class endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/classes", h.CreateClass)
	r.Delete("/classes/{classId}", h.DeleteClass)
	r.Post("/classes/{classId}/schedules", h.CreateSchedule)
	r.Post("/schedules/{scheduleId}/bookings", h.Book)
	r.Get("/schedules/{scheduleId}/bookings", h.ListBookings)
	r.Post("/bookings/{bookingId}/cancel", h.CancelBooking)
}

type classResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

type scheduleResponse struct {
	ID               uuid.UUID `json:"id"`
	ClassID          uuid.UUID `json:"class_id"`
	BranchID         uuid.UUID `json:"branch_id"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	CapacityOverride *int      `json:"capacity_override,omitempty"`
}

type bookingResponse struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	MemberID   uuid.UUID `json:"member_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var input service.CreateClassInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createClassOperation, err)
		return
	}

	class, err := h.svc.CreateClass(r.Context(), input)
	if err != nil {
		api.Fail(w, r, h.logger, createClassOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/classes/"+class.ID.String())
	api.WriteJSON(w, http.StatusCreated, classResponse{ID: class.ID, Name: class.Name, Capacity: class.Capacity})
}

func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "classId")
	if err != nil {
		api.Fail(w, r, h.logger, deleteClassOperation, err)
		return
	}
	if err := h.svc.DeleteClass(r.Context(), id); err != nil {
		api.Fail(w, r, h.logger, deleteClassOperation, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	classID, err := api.PathUUID(r, "classId")
	if err != nil {
		api.Fail(w, r, h.logger, createScheduleOperation, err)
		return
	}

	var input service.CreateScheduleInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createScheduleOperation, err)
		return
	}

	schedule, err := h.svc.CreateSchedule(r.Context(), classID, input)
	if err != nil {
		api.Fail(w, r, h.logger, createScheduleOperation, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, scheduleResponse{
		ID:               schedule.ID,
		ClassID:          schedule.ClassID,
		BranchID:         schedule.BranchID,
		StartsAt:         schedule.StartsAt,
		EndsAt:           schedule.EndsAt,
		CapacityOverride: schedule.CapacityOverride,
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := api.PathUUID(r, "scheduleId")
	if err != nil {
		api.Fail(w, r, h.logger, bookOperation, err)
		return
	}

	var input service.BookInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, bookOperation, err)
		return
	}

	booking, err := h.svc.Book(r.Context(), scheduleID, input)
	if err != nil {
		api.Fail(w, r, h.logger, bookOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := api.PathUUID(r, "scheduleId")
	if err != nil {
		api.Fail(w, r, h.logger, listBookingsOperation, err)
		return
	}

	bookings, err := h.svc.ListBookings(r.Context(), scheduleID)
	if err != nil {
		api.Fail(w, r, h.logger, listBookingsOperation, err)
		return
	}

	items := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		items = append(items, toBookingResponse(booking))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := api.PathUUID(r, "bookingId")
	if err != nil {
		api.Fail(w, r, h.logger, cancelBookingOperation, err)
		return
	}

	booking, err := h.svc.CancelBooking(r.Context(), bookingID)
	if err != nil {
		api.Fail(w, r, h.logger, cancelBookingOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(booking service.Booking) bookingResponse {
	return bookingResponse{
		ID:         booking.ID,
		ScheduleID: booking.ScheduleID,
		MemberID:   booking.MemberID,
		Status:     string(booking.Status),
		CreatedAt:  booking.CreatedAt,
	}
}
