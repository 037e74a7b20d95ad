package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/accounts"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/tokens"
)

type Accounts interface {
	SignUp(ctx context.Context, req accounts.SignUpRequest) (accounts.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (accounts.TokenPair, error)
	Refresh(ctx context.Context, raw string) (accounts.TokenPair, error)
	SignOut(ctx context.Context, raw string) error
	Session(ctx context.Context, claims auth.Claims) (accounts.Session, error)
	Profile(ctx context.Context, userID string) (storage.User, error)
	UpdateProfile(ctx context.Context, userID, name, phone string) (storage.User, error)
}

type AuthHandler struct {
	accounts Accounts
	signer   tokens.Signer
	logger   *slog.Logger
}

func NewAuthHandler(svc Accounts, signer tokens.Signer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: svc, signer: signer, logger: logger}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/signup", h.SignUp)
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.HandleFunc("/api/v1/auth/refresh", h.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", h.Logout)
	mux.HandleFunc("/api/v1/auth/session", h.Session)
	mux.HandleFunc("/api/v1/auth/profile", h.Profile)
	mux.HandleFunc("/api/v1/auth/rotate", h.Rotate)
	mux.HandleFunc("/.well-known/jwks.json", h.JWKS)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req accounts.SignUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	pair, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, pair)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	pair, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	pair, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := h.accounts.SignOut(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.verify(w, r)
	if !ok {
		return
	}
	session, err := h.accounts.Session(r.Context(), *claims)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.verify(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := h.accounts.Profile(r.Context(), claims.Sub)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req profileRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
			return
		}
		user, err := h.accounts.UpdateProfile(r.Context(), claims.Sub, req.Name, req.Phone)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, user)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	keys := h.signer.JWKS()
	if len(keys) == 0 {
		http.Error(w, "jwks not available", http.StatusNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// Rotate switches the RS256 signing key. It is guarded by X-Rotate-Key.
func (h *AuthHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ring, ok := h.signer.(*tokens.KeyRing)
	if !ok {
		http.Error(w, "rotation not enabled", http.StatusBadRequest)
		return
	}
	var req struct {
		ActiveKid string `json:"active_kid"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil || req.ActiveKid == "" {
		http.Error(w, "active_kid is required", http.StatusBadRequest)
		return
	}
	switch err := ring.Rotate(r.Header.Get("X-Rotate-Key"), req.ActiveKid); {
	case errors.Is(err, tokens.ErrRotationDisabled):
		http.Error(w, "rotation not enabled", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidToken):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, tokens.ErrUnknownKid):
		http.Error(w, "invalid active_kid", http.StatusBadRequest)
	case err != nil:
		http.Error(w, "rotation failed", http.StatusInternalServerError)
	default:
		h.logger.Info("jwt signing key rotated", "active_kid", req.ActiveKid)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	token, err := auth.BearerToken(r)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		return nil, false
	}
	claims, err := h.signer.Verify(token)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var aerr *accounts.Error
	if errors.As(err, &aerr) {
		httpx.WriteError(w, aerr.Status(), aerr.Code, aerr.Message())
		return
	}
	h.logger.Error("auth request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
	httpx.WriteError(w, http.StatusInternalServerError, "internal", accounts.Message(""))
}
