package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/slotcache"
)

type fakeStore struct {
	appts       []model.Appointment
	bookedErr   error
	bookedCalls int
	createErr   error
	nextID      int
}

func (f *fakeStore) active(barberID, date string) []model.Appointment {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.BarberID == barberID && a.Date == date &&
			(a.Status == model.StatusPending || a.Status == model.StatusConfirmed) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeStore) BookedTimes(_ context.Context, barberID, date string) ([]string, error) {
	f.bookedCalls++
	if f.bookedErr != nil {
		return nil, f.bookedErr
	}
	var times []string
	for _, a := range f.active(barberID, date) {
		times = append(times, a.Time)
	}
	return times, nil
}

func (f *fakeStore) SlotTaken(_ context.Context, barberID, date, label string) (bool, error) {
	for _, a := range f.active(barberID, date) {
		if a.Time == label {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(_ context.Context, appt *model.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	appt.ID = "appt-" + string(rune('0'+f.nextID))
	appt.CreatedAt = time.Now()
	f.appts = append(f.appts, *appt)
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(context.Context) ([]model.Appointment, error) {
	return append([]model.Appointment(nil), f.appts...), nil
}

func (f *fakeStore) find(id string) (int, error) {
	for i, a := range f.appts {
		if a.ID == id {
			return i, nil
		}
	}
	return -1, model.ErrNotFound
}

func (f *fakeStore) Get(_ context.Context, id string) (model.Appointment, error) {
	i, err := f.find(id)
	if err != nil {
		return model.Appointment{}, err
	}
	return f.appts[i], nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status string, check func(model.Appointment) error) (model.Appointment, error) {
	i, err := f.find(id)
	if err != nil {
		return model.Appointment{}, err
	}
	if check != nil {
		if err := check(f.appts[i]); err != nil {
			return model.Appointment{}, err
		}
	}
	f.appts[i].Status = status
	return f.appts[i], nil
}

func (f *fakeStore) Delete(_ context.Context, id string, check func(model.Appointment) error) error {
	i, err := f.find(id)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(f.appts[i]); err != nil {
			return err
		}
	}
	f.appts = append(f.appts[:i], f.appts[i+1:]...)
	return nil
}

type fakeDirectory map[string]string

func (d fakeDirectory) Barber(_ context.Context, id string) (model.Barber, error) {
	name, ok := d[id]
	if !ok {
		return model.Barber{}, model.ErrUnknownBarber
	}
	return model.Barber{ID: id, Name: name}, nil
}

type fakeHandoff struct{ last *model.Appointment }

func (h *fakeHandoff) Put(_ context.Context, appt model.Appointment) error {
	h.last = &appt
	return nil
}

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) (*Service, *fakeHandoff) {
	h := &fakeHandoff{}
	svc := NewService(store, fakeDirectory{"b-1": "John Doe"}, slotcache.New(32, time.Minute), h,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{Hours: availability.DefaultHours(), BookingWindowDays: 7, Now: func() time.Time { return fixedNow }})
	return svc, h
}

func validRequest() BookingRequest {
	return BookingRequest{
		Session:   "u-1",
		UserID:    "u-1",
		UserName:  "Alice",
		UserEmail: "alice@example.com",
		ServiceID: "4",
		BarberID:  "b-1",
		Date:      "2026-03-03",
		Time:      "10:00 AM",
	}
}

func TestAvailabilityMarksBookedAndCaches(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "x", BarberID: "b-1", Date: "2026-03-03", Time: "9:30 AM", Status: model.StatusConfirmed},
		{ID: "y", BarberID: "b-1", Date: "2026-03-03", Time: "11:00 AM", Status: model.StatusCancelled},
	}}
	svc, _ := newTestService(store)
	ctx := context.Background()

	slots, err := svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Available == (s.Time == "9:30 AM") {
			t.Fatalf("unexpected availability for %s: %v", s.Time, s.Available)
		}
	}

	if _, err := svc.Availability(ctx, "u-1", "b-1", "2026-03-03"); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if store.bookedCalls != 1 {
		t.Fatalf("expected cached second call, got %d queries", store.bookedCalls)
	}
}

func TestAvailabilityQueryErrorReturnsAllAvailable(t *testing.T) {
	store := &fakeStore{bookedErr: errors.New("db down")}
	svc, _ := newTestService(store)
	ctx := context.Background()

	slots, err := svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("expected all available on query error, %s was not", s.Time)
		}
	}
	_, _ = svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	if store.bookedCalls != 2 {
		t.Fatalf("fallback list must not be cached, got %d queries", store.bookedCalls)
	}
}

func TestBookCreatesConfirmedAppointment(t *testing.T) {
	store := &fakeStore{}
	svc, h := newTestService(store)
	ctx := context.Background()

	_, _ = svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	appt, err := svc.Book(ctx, validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.Status != model.StatusConfirmed || appt.ServicePrice != 45 || appt.ServiceDuration != 30 {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if appt.BarberName != "John Doe" || appt.ServiceName != "Hair Color" {
		t.Fatalf("expected denormalized names, got %+v", appt)
	}
	if !appt.StartsAt.Equal(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", appt.StartsAt)
	}
	if h.last == nil || h.last.ID != appt.ID {
		t.Fatal("expected handoff record for the new appointment")
	}

	slots, _ := svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	for _, s := range slots {
		if s.Time == "10:00 AM" && s.Available {
			t.Fatal("expected cached slot to be marked unavailable")
		}
	}
	if store.bookedCalls != 1 {
		t.Fatalf("expected cache to be updated in place, got %d queries", store.bookedCalls)
	}
}

func TestBookSlotTakenWritesNothing(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "x", BarberID: "b-1", Date: "2026-03-03", Time: "10:00 AM", Status: model.StatusPending},
	}}
	svc, h := newTestService(store)
	ctx := context.Background()

	_, _ = svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	_, err := svc.Book(ctx, validRequest())
	if !errors.Is(err, model.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(store.appts) != 1 || h.last != nil {
		t.Fatal("slot taken must not create a record")
	}

	_, _ = svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	if store.bookedCalls != 2 {
		t.Fatalf("expected cache invalidation to force a re-query, got %d", store.bookedCalls)
	}
}

func TestBookInsertConflictIsSlotTaken(t *testing.T) {
	store := &fakeStore{createErr: model.ErrSlotTaken}
	svc, _ := newTestService(store)
	if _, err := svc.Book(context.Background(), validRequest()); !errors.Is(err, model.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	cases := map[string]func(*BookingRequest){
		"service_id": func(r *BookingRequest) { r.ServiceID = "9" },
		"barber_id":  func(r *BookingRequest) { r.BarberID = "b-404" },
		"date":       func(r *BookingRequest) { r.Date = "2026-03-01" },
		"time":       func(r *BookingRequest) { r.Time = "5:00 PM" },
	}
	for field, mutate := range cases {
		svc, _ := newTestService(&fakeStore{})
		req := validRequest()
		mutate(&req)
		_, err := svc.Book(context.Background(), req)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: expected validation error, got %v", field, err)
		}
	}

	svc, _ := newTestService(&fakeStore{})
	req := validRequest()
	req.Date = "2026-03-09"
	if _, err := svc.Book(context.Background(), req); err == nil {
		t.Fatal("expected date beyond the window to be rejected")
	}
	req.Date = "2026-03-08"
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("expected last window day to be accepted, got %v", err)
	}
}

func TestBookWindowUsesShopZone(t *testing.T) {
	shop := time.FixedZone("shop", -5*3600)
	svc := NewService(&fakeStore{}, fakeDirectory{"b-1": "John Doe"}, slotcache.New(32, time.Minute), &fakeHandoff{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{
			Hours:             availability.DefaultHours(),
			BookingWindowDays: 7,
			Location:          shop,
			Now:               func() time.Time { return time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC) },
		})

	for date, ok := range map[string]bool{
		"2026-02-28": false,
		"2026-03-01": true,
		"2026-03-07": true,
		"2026-03-08": false,
	} {
		err := svc.validateDate(date)
		if (err == nil) != ok {
			t.Fatalf("%s: expected accepted=%v, got %v", date, ok, err)
		}
	}
}

func TestCancelRules(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", UserID: "u-1", Date: "2026-03-05", Status: model.StatusConfirmed},
		{ID: "b", UserID: "u-1", Date: "2026-03-01", Status: model.StatusConfirmed},
		{ID: "c", UserID: "u-2", Date: "2026-03-05", Status: model.StatusConfirmed},
		{ID: "d", UserID: "u-1", Date: "2026-03-05", Status: model.StatusCancelled},
	}}
	svc, _ := newTestService(store)
	ctx := context.Background()

	got, err := svc.Cancel(ctx, "u-1", "a")
	if err != nil || got.Status != model.StatusCancelled {
		t.Fatalf("Cancel: %+v %v", got, err)
	}
	if _, err := svc.Cancel(ctx, "u-1", "b"); !errors.Is(err, model.ErrNotCancellable) {
		t.Fatalf("expected past appointment to be rejected, got %v", err)
	}
	if _, err := svc.Cancel(ctx, "u-1", "c"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected other user's appointment to be hidden, got %v", err)
	}
	if _, err := svc.Cancel(ctx, "u-1", "d"); !errors.Is(err, model.ErrNotCancellable) {
		t.Fatalf("expected cancelled appointment to be rejected, got %v", err)
	}
}

func TestCancelFreesCachedSlot(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", UserID: "u-1", BarberID: "b-1", Date: "2026-03-03", Time: "10:00 AM", Status: model.StatusConfirmed},
	}}
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Availability(ctx, "u-1", "b-1", "2026-03-03"); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if _, err := svc.Cancel(ctx, "u-1", "a"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	slots, err := svc.Availability(ctx, "u-1", "b-1", "2026-03-03")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if store.bookedCalls != 2 {
		t.Fatalf("expected cancel to drop the cached list, got %d queries", store.bookedCalls)
	}
	for _, s := range slots {
		if s.Time == "10:00 AM" && !s.Available {
			t.Fatal("cancelled slot still shown as booked")
		}
	}
}

func TestDeleteForUserRules(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", UserID: "u-1", Date: "2026-03-05", Status: model.StatusConfirmed},
		{ID: "b", UserID: "u-1", Date: "2026-03-01", Status: model.StatusConfirmed},
		{ID: "c", UserID: "u-1", Date: "2026-03-05", Status: model.StatusCancelled},
	}}
	svc, _ := newTestService(store)
	ctx := context.Background()

	if err := svc.DeleteForUser(ctx, "u-1", "a"); !errors.Is(err, model.ErrNotDeletable) {
		t.Fatalf("expected upcoming appointment to be kept, got %v", err)
	}
	if err := svc.DeleteForUser(ctx, "u-1", "b"); err != nil {
		t.Fatalf("expected past appointment to be deleted, got %v", err)
	}
	if err := svc.DeleteForUser(ctx, "u-1", "c"); err != nil {
		t.Fatalf("expected cancelled appointment to be deleted, got %v", err)
	}
	if len(store.appts) != 1 {
		t.Fatalf("expected one appointment left, got %d", len(store.appts))
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{{ID: "a", Status: model.StatusConfirmed}}}
	svc, _ := newTestService(store)
	if _, err := svc.SetStatus(context.Background(), "a", "booked"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, err := svc.SetStatus(context.Background(), "a", model.StatusCompleted)
	if err != nil || got.Status != model.StatusCompleted {
		t.Fatalf("SetStatus: %+v %v", got, err)
	}
}

func TestAdminListFilters(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", UserName: "Alice", Status: model.StatusPending},
		{ID: "b", UserName: "Bob", Status: model.StatusConfirmed},
	}}
	svc, _ := newTestService(store)
	got, err := svc.AdminList(context.Background(), model.StatusPending, "")
	if err != nil || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("AdminList: %+v %v", got, err)
	}
}

func TestSummarize(t *testing.T) {
	at := func(day, hour int) time.Time { return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC) }
	all := []model.Appointment{
		{UserID: "u1", Date: "2026-03-02", Status: model.StatusCompleted, ServicePrice: 25, StartsAt: at(2, 7)},
		{UserID: "u1", Date: "2026-03-02", Status: model.StatusPending, ServicePrice: 15, StartsAt: at(2, 9)},
		{UserID: "u2", Date: "2026-03-03", Status: model.StatusCompleted, ServicePrice: 45, StartsAt: at(3, 9)},
		{UserID: "u3", Date: "2026-03-04", Status: model.StatusCancelled, ServicePrice: 20, StartsAt: at(4, 9)},
		{UserID: "u4", Date: "2026-03-05", Status: model.StatusConfirmed, StartsAt: at(5, 9)},
		{UserID: "u4", Date: "2026-03-06", Status: model.StatusConfirmed, StartsAt: at(6, 9)},
		{UserID: "u4", Date: "2026-03-07", Status: model.StatusConfirmed, StartsAt: at(7, 9)},
		{UserID: "u4", Date: "2026-03-08", Status: model.StatusConfirmed, StartsAt: at(8, 9)},
	}
	d := summarize(all, "2026-03-02", fixedNow)
	if d.TodayAppointments != 2 || d.PendingAppointments != 1 {
		t.Fatalf("unexpected counts %+v", d)
	}
	if d.TotalRevenue != 70 || d.TotalCustomers != 4 {
		t.Fatalf("unexpected totals %+v", d)
	}
	if len(d.Upcoming) != 5 || !d.Upcoming[0].StartsAt.Equal(at(2, 9)) || !d.Upcoming[4].StartsAt.Equal(at(7, 9)) {
		t.Fatalf("unexpected upcoming %+v", d.Upcoming)
	}
}

func TestBookableDates(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	dates := svc.BookableDates()
	if len(dates) != 7 || dates[0] != "2026-03-02" || dates[6] != "2026-03-08" {
		t.Fatalf("unexpected dates %v", dates)
	}
}
