package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type Appointments interface {
	Availability(ctx context.Context, session, barberID, date string) ([]availability.Slot, error)
	BookableDates() []string
	Book(ctx context.Context, req booking.BookingRequest) (model.Appointment, error)
	ListForUser(ctx context.Context, userID string) ([]model.Appointment, error)
	Cancel(ctx context.Context, userID, id string) (model.Appointment, error)
	DeleteForUser(ctx context.Context, userID, id string) error
	AdminList(ctx context.Context, status, search string) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	SetStatus(ctx context.Context, id, status string) (model.Appointment, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (booking.Dashboard, error)
}

type HandoffTaker interface {
	Take(ctx context.Context, userID string) (model.Appointment, bool, error)
}

type Handler struct {
	svc     Appointments
	handoff HandoffTaker
	logger  *slog.Logger
}

func New(svc Appointments, handoff HandoffTaker, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, handoff: handoff, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/services", h.Services)

	mux.HandleFunc("/api/v1/client/dates", h.Dates)
	mux.HandleFunc("/api/v1/client/slots", h.Slots)
	mux.HandleFunc("/api/v1/client/book", h.Book)
	mux.HandleFunc("/api/v1/client/appointments", h.ListOwn)
	mux.HandleFunc("GET /api/v1/client/appointments/handoff", h.Handoff)
	mux.HandleFunc("POST /api/v1/client/appointments/{id}/cancel", h.CancelOwn)
	mux.HandleFunc("DELETE /api/v1/client/appointments/{id}", h.DeleteOwn)

	mux.HandleFunc("/api/v1/admin/appointments", h.AdminList)
	mux.HandleFunc("GET /api/v1/admin/appointments/{id}", h.AdminGet)
	mux.HandleFunc("PUT /api/v1/admin/appointments/{id}/status", h.AdminSetStatus)
	mux.HandleFunc("DELETE /api/v1/admin/appointments/{id}", h.AdminDelete)
	mux.HandleFunc("/api/v1/admin/dashboard", h.Dashboard)
}

const genericMessage = "Something went wrong. Please try again."

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.Is(err, model.ErrSlotTaken):
		httpx.WriteError(w, http.StatusConflict, "slot_taken", booking.SlotTakenMessage)
	case errors.Is(err, model.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "appointment not found")
	case errors.Is(err, model.ErrNotCancellable):
		httpx.WriteError(w, http.StatusConflict, "not_cancellable", "appointment cannot be cancelled")
	case errors.Is(err, model.ErrNotDeletable):
		httpx.WriteError(w, http.StatusConflict, "not_deletable", "only past or cancelled appointments can be deleted")
	case errors.Is(err, model.ErrInvalidStatus):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_status", "status must be one of pending, confirmed, completed, cancelled")
	default:
		h.logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "internal", genericMessage)
	}
}

func requireCustomer(w http.ResponseWriter, r *http.Request) (httpx.Identity, bool) {
	id, ok := httpx.IdentityFromRequest(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
		return httpx.Identity{}, false
	}
	return id, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	id, ok := httpx.IdentityFromRequest(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
		return false
	}
	if !id.IsAdmin() {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "admin role required")
		return false
	}
	return true
}

// appointmentID rejects ids that are not UUIDs as not found.
func appointmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("id")
	if _, err := uuid.Parse(raw); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "appointment not found")
		return "", false
	}
	return raw, true
}
