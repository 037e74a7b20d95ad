package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/kv"
	"github.com/md-rashed-zaman/barberbook/libs/routing"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/tokens"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fakeUsers struct {
	byID      map[string]storage.User
	lookupErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]storage.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *storage.User) error {
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return storage.ErrEmailTaken
		}
	}
	u.ID = fmt.Sprintf("u-%d", len(f.byID)+1)
	u.Email = strings.ToLower(u.Email)
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (storage.User, error) {
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (storage.User, error) {
	if f.lookupErr != nil {
		return storage.User{}, f.lookupErr
	}
	u, ok := f.byID[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, name, phone string) (storage.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	u.Name, u.Phone = name, phone
	f.byID[id] = u
	return u, nil
}

type fakeRefresh struct {
	byRaw map[string]*sessions.RefreshToken
	n     int
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{byRaw: map[string]*sessions.RefreshToken{}}
}

func (f *fakeRefresh) Create(_ context.Context, userID, raw string, expiresAt time.Time) error {
	f.n++
	f.byRaw[raw] = &sessions.RefreshToken{ID: fmt.Sprintf("r-%d", f.n), UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRefresh) Get(_ context.Context, raw string) (sessions.RefreshToken, error) {
	t, ok := f.byRaw[raw]
	if !ok {
		return sessions.RefreshToken{}, sessions.ErrNotFound
	}
	return *t, nil
}

func (f *fakeRefresh) Rotate(ctx context.Context, oldID, userID, raw string, expiresAt time.Time) error {
	for _, t := range f.byRaw {
		if t.ID == oldID {
			if t.RevokedAt != nil {
				return sessions.ErrNotFound
			}
			now := fixedNow
			t.RevokedAt = &now
		}
	}
	return f.Create(ctx, userID, raw, expiresAt)
}

func (f *fakeRefresh) Revoke(_ context.Context, id string) error {
	for _, t := range f.byRaw {
		if t.ID == id {
			now := fixedNow
			t.RevokedAt = &now
		}
	}
	return nil
}

type harness struct {
	svc     *Service
	users   *fakeUsers
	refresh *fakeRefresh
	mirror  *sessions.Mirror
	signer  tokens.Signer
}

func newHarness() *harness {
	h := &harness{
		users:   newFakeUsers(),
		refresh: newFakeRefresh(),
		mirror:  sessions.NewMirror(kv.NewMemoryStore(), time.Hour),
		signer:  tokens.NewHS256("test-secret"),
	}
	h.svc = NewService(h.users, h.refresh, h.mirror, h.signer, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		AdminCode:  "barber123",
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return fixedNow },
	})
	return h
}

func signUp(name, email string) SignUpRequest {
	return SignUpRequest{Name: name, Email: email, Password: "secret1", ConfirmPassword: "secret1"}
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Code != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestSignUpValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := signUp("Alice", "")
	_, err := h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeMissingFields)

	req = signUp("Ann\nLee", "ann@example.com")
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeInvalidName)

	req = signUp("Alice", "not-an-email")
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeInvalidEmail)

	req = signUp("Alice", "alice@example.com")
	req.ConfirmPassword = "other12"
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodePasswordsMismatch)

	req = signUp("Alice", "alice@example.com")
	req.Password, req.ConfirmPassword = "abc", "abc"
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeWeakPassword)

	req = signUp("Alice", "alice@example.com")
	req.AsAdmin, req.AdminCode = true, "nope"
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeInvalidAdminCode)

	req = signUp("Alice", "alice@example.com")
	req.AsAdmin, req.AdminCode = true, "barber1234"
	_, err = h.svc.SignUp(ctx, req)
	expectCode(t, err, CodeInvalidAdminCode)
}

func TestSignUpAssignsRoleAndIssuesTokens(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	pair, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if pair.User.Role != routing.RoleCustomer || pair.Home != routing.CustomerHome {
		t.Fatalf("unexpected customer pair %+v", pair)
	}
	claims, err := h.signer.Verify(pair.AccessToken)
	if err != nil || claims.Sub != pair.User.ID || claims.Role != routing.RoleCustomer {
		t.Fatalf("bad access token: %v %+v", err, claims)
	}
	if claims.Exp != fixedNow.Add(time.Hour).Unix() {
		t.Fatalf("unexpected exp %d", claims.Exp)
	}

	admin := signUp("Bob", "bob@example.com")
	admin.AsAdmin, admin.AdminCode = true, "barber123"
	pair, err = h.svc.SignUp(ctx, admin)
	if err != nil {
		t.Fatalf("admin sign up: %v", err)
	}
	if pair.User.Role != routing.RoleAdmin || pair.Home != routing.AdminHome {
		t.Fatalf("unexpected admin pair %+v", pair)
	}

	_, err = h.svc.SignUp(ctx, signUp("Alice again", "ALICE@example.com"))
	expectCode(t, err, CodeEmailInUse)
}

func TestSignUpAdminDisabledWithoutCode(t *testing.T) {
	h := newHarness()
	h.svc.cfg.AdminCode = ""
	req := signUp("Bob", "bob@example.com")
	req.AsAdmin = true
	_, err := h.svc.SignUp(context.Background(), req)
	expectCode(t, err, CodeInvalidAdminCode)
}

func TestSignInErrorsShareMessage(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if _, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	_, err := h.svc.SignIn(ctx, "ghost@example.com", "secret1")
	expectCode(t, err, CodeUserNotFound)
	_, err2 := h.svc.SignIn(ctx, "alice@example.com", "wrong!!")
	expectCode(t, err2, CodeWrongPassword)
	if err.(*Error).Message() != err2.(*Error).Message() {
		t.Fatalf("expected shared message")
	}
	if err.(*Error).Status() != 401 {
		t.Fatalf("expected 401, got %d", err.(*Error).Status())
	}

	pair, err := h.svc.SignIn(ctx, " alice@example.com ", "secret1")
	if err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("sign in: %v %+v", err, pair)
	}
}

func TestRefreshRotates(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	first, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	second, err := h.svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	_, err = h.svc.Refresh(ctx, first.RefreshToken)
	expectCode(t, err, CodeInvalidRefresh)

	_, err = h.svc.Refresh(ctx, "unknown")
	expectCode(t, err, CodeInvalidRefresh)
}

func TestRefreshRejectsExpired(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	pair, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	h.refresh.byRaw[pair.RefreshToken].ExpiresAt = fixedNow.Add(-time.Second)
	_, err = h.svc.Refresh(ctx, pair.RefreshToken)
	expectCode(t, err, CodeInvalidRefresh)
}

func TestSessionMirrorsRole(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	pair, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	session, err := h.svc.Session(ctx, auth.Claims{Sub: pair.User.ID})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.State != routing.StateAuthenticatedCustomer || session.Home != routing.CustomerHome || session.User.Name != "Alice" {
		t.Fatalf("unexpected session %+v", session)
	}
	rec, ok, err := h.mirror.Get(ctx, pair.User.ID)
	if err != nil || !ok || rec.Role != routing.RoleCustomer {
		t.Fatalf("mirror not written: %+v %v %v", rec, ok, err)
	}

	// lookup failure falls back to the mirror
	h.users.lookupErr = errors.New("db down")
	session, err = h.svc.Session(ctx, auth.Claims{Sub: pair.User.ID})
	if err != nil || session.State != routing.StateAuthenticatedCustomer {
		t.Fatalf("expected mirror fallback, got %+v %v", session, err)
	}

	// without a mirror the role stays unresolved
	if err := h.svc.SignOut(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	session, err = h.svc.Session(ctx, auth.Claims{Sub: pair.User.ID})
	if err != nil || session.State != routing.StateLoading || session.Home != "" {
		t.Fatalf("expected loading, got %+v %v", session, err)
	}
}

func TestSessionUnknownUser(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Session(context.Background(), auth.Claims{Sub: "ghost"})
	expectCode(t, err, CodeUserNotFound)
}

func TestSignOutRevokesAndIgnoresUnknown(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	pair, err := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := h.svc.SignOut(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if h.refresh.byRaw[pair.RefreshToken].RevokedAt == nil {
		t.Fatalf("refresh token not revoked")
	}
	if err := h.svc.SignOut(ctx, "unknown"); err != nil {
		t.Fatalf("unknown token should be ignored, got %v", err)
	}
	expectCode(t, h.svc.SignOut(ctx, ""), CodeMissingFields)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	pair, _ := h.svc.SignUp(ctx, signUp("Alice", "alice@example.com"))

	_, err := h.svc.UpdateProfile(ctx, pair.User.ID, "  ", "555")
	expectCode(t, err, CodeMissingFields)

	_, err = h.svc.UpdateProfile(ctx, pair.User.ID, "Alice\x00B", "555")
	expectCode(t, err, CodeInvalidName)

	user, err := h.svc.UpdateProfile(ctx, pair.User.ID, " Alice B ", " 555-0100 ")
	if err != nil || user.Name != "Alice B" || user.Phone != "555-0100" {
		t.Fatalf("unexpected profile %+v %v", user, err)
	}
}

func TestMessageFallback(t *testing.T) {
	if Message("auth/unknown") != fallbackMessage {
		t.Fatalf("unknown code should fall back")
	}
}
