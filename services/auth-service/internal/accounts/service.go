package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/routing"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/tokens"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

type Users interface {
	Create(ctx context.Context, u *storage.User) error
	GetByEmail(ctx context.Context, email string) (storage.User, error)
	GetByID(ctx context.Context, id string) (storage.User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (storage.User, error)
}

type RefreshTokens interface {
	Create(ctx context.Context, userID, rawToken string, expiresAt time.Time) error
	Get(ctx context.Context, rawToken string) (sessions.RefreshToken, error)
	Rotate(ctx context.Context, oldID, userID, rawToken string, expiresAt time.Time) error
	Revoke(ctx context.Context, id string) error
}

type SessionMirror interface {
	Put(ctx context.Context, rec sessions.Record) error
	Get(ctx context.Context, userID string) (sessions.Record, bool, error)
	Clear(ctx context.Context, userID string) error
}

type Config struct {
	AdminCode  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
}

type Service struct {
	users   Users
	refresh RefreshTokens
	mirror  SessionMirror
	signer  tokens.Signer
	logger  *slog.Logger
	cfg     Config
}

func NewService(users Users, refresh RefreshTokens, mirror SessionMirror, signer tokens.Signer, logger *slog.Logger, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{users: users, refresh: refresh, mirror: mirror, signer: signer, logger: logger, cfg: cfg}
}

type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AsAdmin         bool   `json:"as_admin"`
	AdminCode       string `json:"admin_code"`
}

type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         storage.User `json:"user"`
	Home         string       `json:"home"`
}

func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (TokenPair, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return TokenPair{}, fail(CodeMissingFields)
	}
	if !validName(name) {
		return TokenPair{}, fail(CodeInvalidName)
	}
	if !validEmail(email) {
		return TokenPair{}, fail(CodeInvalidEmail)
	}
	if req.Password != req.ConfirmPassword {
		return TokenPair{}, fail(CodePasswordsMismatch)
	}
	if len(req.Password) < MinPasswordLength {
		return TokenPair{}, fail(CodeWeakPassword)
	}
	role := routing.RoleCustomer
	if req.AsAdmin || req.AdminCode != "" {
		if s.cfg.AdminCode == "" || subtle.ConstantTimeCompare([]byte(req.AdminCode), []byte(s.cfg.AdminCode)) != 1 {
			return TokenPair{}, fail(CodeInvalidAdminCode)
		}
		role = routing.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return TokenPair{}, err
	}
	user := storage.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return TokenPair{}, fail(CodeEmailInUse)
		}
		return TokenPair{}, err
	}
	return s.issue(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return TokenPair{}, fail(CodeMissingFields)
	}
	if !validEmail(email) {
		return TokenPair{}, fail(CodeInvalidEmail)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return TokenPair{}, fail(CodeUserNotFound)
	}
	if err != nil {
		return TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, fail(CodeWrongPassword)
	}
	return s.issue(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. The presented token is revoked.
func (s *Service) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TokenPair{}, fail(CodeMissingFields)
	}
	record, err := s.refresh.Get(ctx, raw)
	if errors.Is(err, sessions.ErrNotFound) {
		return TokenPair{}, fail(CodeInvalidRefresh)
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !record.Usable(s.cfg.Now()) {
		return TokenPair{}, fail(CodeInvalidRefresh)
	}
	user, err := s.users.GetByID(ctx, record.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return TokenPair{}, fail(CodeInvalidRefresh)
	}
	if err != nil {
		return TokenPair{}, err
	}

	next, err := newRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.Rotate(ctx, record.ID, user.ID, next, s.cfg.Now().Add(s.cfg.RefreshTTL)); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return TokenPair{}, fail(CodeInvalidRefresh)
		}
		return TokenPair{}, err
	}
	access, err := s.accessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: next, TokenType: "Bearer", User: user, Home: homeFor(user.Role)}, nil
}

// SignOut revokes the refresh token and drops the session mirror. Unknown
// tokens are ignored.
func (s *Service) SignOut(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fail(CodeMissingFields)
	}
	record, err := s.refresh.Get(ctx, raw)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.RevokedAt == nil {
		if err := s.refresh.Revoke(ctx, record.ID); err != nil {
			return err
		}
	}
	if err := s.mirror.Clear(ctx, record.UserID); err != nil {
		s.logger.Warn("session mirror clear failed", "err", err, "user_id", record.UserID)
	}
	return nil
}

type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	User  SessionUser   `json:"user"`
	Role  string        `json:"role,omitempty"`
	State routing.State `json:"state"`
	Home  string        `json:"home,omitempty"`
}

// Session resolves the caller's role from the users table and mirrors it.
// When the lookup fails the mirror answers; without one the role is unresolved.
func (s *Service) Session(ctx context.Context, claims auth.Claims) (Session, error) {
	out := Session{User: SessionUser{ID: claims.Sub, Name: claims.Name, Email: claims.Email}}

	user, err := s.users.GetByID(ctx, claims.Sub)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Session{}, fail(CodeUserNotFound)
	case err != nil:
		s.logger.Error("role lookup failed", "err", err, "user_id", claims.Sub)
		rec, ok, mirrorErr := s.mirror.Get(ctx, claims.Sub)
		if mirrorErr != nil {
			s.logger.Warn("session mirror read failed", "err", mirrorErr, "user_id", claims.Sub)
		}
		if ok {
			out.Role = rec.Role
		}
	default:
		out.User = SessionUser{ID: user.ID, Name: user.Name, Email: user.Email}
		out.Role = user.Role
		rec := sessions.Record{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, UpdatedAt: s.cfg.Now().UTC()}
		if err := s.mirror.Put(ctx, rec); err != nil {
			s.logger.Warn("session mirror write failed", "err", err, "user_id", user.ID)
		}
	}

	out.State = routing.Resolve(routing.Session{UserID: out.User.ID, Role: out.Role, RoleResolved: out.Role != ""})
	if out.Role != "" {
		out.Home = routing.Home(out.State)
	}
	return out, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (storage.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, fail(CodeUserNotFound)
	}
	return user, err
}

func (s *Service) UpdateProfile(ctx context.Context, userID, name, phone string) (storage.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.User{}, fail(CodeMissingFields)
	}
	if !validName(name) {
		return storage.User{}, fail(CodeInvalidName)
	}
	user, err := s.users.UpdateProfile(ctx, userID, name, strings.TrimSpace(phone))
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, fail(CodeUserNotFound)
	}
	return user, err
}

func (s *Service) issue(ctx context.Context, user storage.User) (TokenPair, error) {
	access, err := s.accessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.Create(ctx, user.ID, refresh, s.cfg.Now().Add(s.cfg.RefreshTTL)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", User: user, Home: homeFor(user.Role)}, nil
}

func (s *Service) accessToken(user storage.User) (string, error) {
	now := s.cfg.Now()
	return s.signer.Sign(auth.Claims{
		Sub:   user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Iat:   now.Unix(),
		Exp:   now.Add(s.cfg.AccessTTL).Unix(),
	})
}

func homeFor(role string) string {
	return routing.Home(routing.Resolve(routing.Session{UserID: "-", Role: role, RoleResolved: true}))
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// validName rejects control characters; names are forwarded in request headers.
func validName(name string) bool {
	return strings.IndexFunc(name, unicode.IsControl) < 0
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
