package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, catalog.All())
}

func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"dates": h.svc.BookableDates()})
}

type slotsResponse struct {
	BarberID string              `json:"barber_id"`
	Date     string              `json:"date"`
	Slots    []availability.Slot `json:"slots"`
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}
	barberID := strings.TrimSpace(r.URL.Query().Get("barber_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	slots, err := h.svc.Availability(r.Context(), id.UserID, barberID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{BarberID: barberID, Date: date, Slots: slots})
}

type bookRequest struct {
	ServiceID string `json:"service_id"`
	BarberID  string `json:"barber_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid json body")
		return
	}
	if strings.TrimSpace(req.ServiceID) == "" || strings.TrimSpace(req.BarberID) == "" ||
		strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "service_id, barber_id, date and time are required")
		return
	}

	appt, err := h.svc.Book(r.Context(), booking.BookingRequest{
		Session:   id.UserID,
		UserID:    id.UserID,
		UserName:  id.Name,
		UserEmail: id.Email,
		ServiceID: req.ServiceID,
		BarberID:  req.BarberID,
		Date:      strings.TrimSpace(req.Date),
		Time:      strings.TrimSpace(req.Time),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}
	appts, err := h.svc.ListForUser(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	httpx.WriteJSON(w, http.StatusOK, appts)
}

// Handoff returns the appointment booked moments ago, once.
func (h *Handler) Handoff(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}
	appt, found, err := h.handoff.Take(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) CancelOwn(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}
	apptID, ok := appointmentID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Cancel(r.Context(), id.UserID, apptID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) DeleteOwn(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCustomer(w, r)
	if !ok {
		return
	}
	apptID, ok := appointmentID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteForUser(r.Context(), id.UserID, apptID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
