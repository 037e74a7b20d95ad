package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/barbers"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/model"
)

const barberUUID = "0b4e7a52-2d7c-4a3e-8f61-93c1d2e5f7a0"

type stubBarbers struct {
	created barbers.Input
	deleted string
}

func (s *stubBarbers) List(context.Context) ([]model.Barber, error) {
	return []model.Barber{{ID: barberUUID, Name: "John Doe", Specialty: "Classic Cuts"}}, nil
}

func (s *stubBarbers) AdminList(ctx context.Context) ([]model.Barber, error) { return s.List(ctx) }

func (s *stubBarbers) Get(_ context.Context, id string) (model.Barber, error) {
	if id != barberUUID {
		return model.Barber{}, model.ErrNotFound
	}
	return model.Barber{ID: id, Name: "John Doe"}, nil
}

func (s *stubBarbers) Create(_ context.Context, in barbers.Input) (model.Barber, error) {
	s.created = in
	if in.Name == "" || in.Specialty == "" {
		return model.Barber{}, &barbers.ValidationError{Message: barbers.RequiredFieldsMessage}
	}
	return model.Barber{ID: barberUUID, Name: in.Name, Specialty: in.Specialty}, nil
}

func (s *stubBarbers) Update(_ context.Context, id string, in barbers.Input) (model.Barber, error) {
	if id != barberUUID {
		return model.Barber{}, model.ErrNotFound
	}
	return model.Barber{ID: id, Name: in.Name, Specialty: in.Specialty}, nil
}

func (s *stubBarbers) Delete(_ context.Context, id string) error {
	s.deleted = id
	return nil
}

func newMux(svc *stubBarbers) *http.ServeMux {
	mux := http.NewServeMux()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	return mux
}

func asAdmin(req *http.Request) *http.Request {
	httpx.SetIdentity(req.Header, httpx.Identity{UserID: "a-1", Role: "admin"})
	return req
}

func TestPublicListNeedsNoIdentity(t *testing.T) {
	rr := httptest.NewRecorder()
	newMux(&stubBarbers{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/public/barbers", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []model.Barber
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestPublicListRejectsPost(t *testing.T) {
	rr := httptest.NewRecorder()
	newMux(&stubBarbers{}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/public/barbers", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	mux := newMux(&stubBarbers{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/barbers", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/barbers/"+barberUUID, nil)
	httpx.SetIdentity(req.Header, httpx.Identity{UserID: "u-1", Role: "customer"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	rr := httptest.NewRecorder()
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/admin/barbers", strings.NewReader(`{"name":"Bob"}`)))
	newMux(&stubBarbers{}).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body httpx.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != barbers.RequiredFieldsMessage {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestCreate(t *testing.T) {
	svc := &stubBarbers{}
	rr := httptest.NewRecorder()
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/admin/barbers",
		strings.NewReader(`{"name":"Bob","specialty":"Beards","availability":{"sunday":{"available":true,"hours":"10:00 AM - 1:00 PM"}}}`)))
	newMux(svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if svc.created.Availability == nil || !svc.created.Availability.Sunday.Available {
		t.Fatalf("availability not decoded: %+v", svc.created)
	}
}

func TestUpdateUnknownBarber(t *testing.T) {
	rr := httptest.NewRecorder()
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/api/v1/admin/barbers/5a1d8c3e-0000-4000-8000-000000000000",
		strings.NewReader(`{"name":"Bob","specialty":"Beards"}`)))
	newMux(&stubBarbers{}).ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestNonUUIDIsNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newMux(&stubBarbers{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/public/barbers/not-a-uuid", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	svc := &stubBarbers{}
	rr := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rr, asAdmin(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/barbers/"+barberUUID, nil)))
	if rr.Code != http.StatusNoContent || svc.deleted != barberUUID {
		t.Fatalf("expected 204 and delete of %s, got %d %q", barberUUID, rr.Code, svc.deleted)
	}
}
