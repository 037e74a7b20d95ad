package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/barbers"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/model"
)

type Barbers interface {
	List(ctx context.Context) ([]model.Barber, error)
	AdminList(ctx context.Context) ([]model.Barber, error)
	Get(ctx context.Context, id string) (model.Barber, error)
	Create(ctx context.Context, in barbers.Input) (model.Barber, error)
	Update(ctx context.Context, id string, in barbers.Input) (model.Barber, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	svc    Barbers
	logger *slog.Logger
}

func New(svc Barbers, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/barbers", h.PublicList)
	mux.HandleFunc("GET /api/v1/public/barbers/{id}", h.Get)

	mux.HandleFunc("/api/v1/admin/barbers", h.AdminBarbers)
	mux.HandleFunc("GET /api/v1/admin/barbers/{id}", h.admin(h.Get))
	mux.HandleFunc("PUT /api/v1/admin/barbers/{id}", h.admin(h.Update))
	mux.HandleFunc("DELETE /api/v1/admin/barbers/{id}", h.admin(h.Delete))
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) AdminBarbers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.admin(h.adminList)(w, r)
	case http.MethodPost:
		h.admin(h.Create)(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.AdminList(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := barberID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in barbers.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := barberID(w, r)
	if !ok {
		return
	}
	var in barbers.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	b, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := barberID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.IdentityFromRequest(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
			return
		}
		if !id.IsAdmin() {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *barbers.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", verr.Message)
	case errors.Is(err, model.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "barber not found")
	default:
		h.logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "internal", "Something went wrong. Please try again.")
	}
}

func barberID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("id")
	if _, err := uuid.Parse(raw); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "barber not found")
		return "", false
	}
	return raw, true
}
