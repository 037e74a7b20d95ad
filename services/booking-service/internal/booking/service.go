// Package booking holds the appointment rules: slot availability, the booking
// sequence, client cancellation and cleanup, and admin management.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/filter"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/slotcache"
)

// SlotTakenMessage is shown to a customer who lost the race for a slot.
const SlotTakenMessage = "This time slot has just been reserved by someone else. Please select another time slot."

type Store interface {
	BookedTimes(ctx context.Context, barberID, date string) ([]string, error)
	SlotTaken(ctx context.Context, barberID, date, label string) (bool, error)
	Create(ctx context.Context, appt *model.Appointment) error
	ListByUser(ctx context.Context, userID string) ([]model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string, check func(model.Appointment) error) (model.Appointment, error)
	Delete(ctx context.Context, id string, check func(model.Appointment) error) error
}

type Directory interface {
	Barber(ctx context.Context, id string) (model.Barber, error)
}

type Handoff interface {
	Put(ctx context.Context, appt model.Appointment) error
}

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

type Config struct {
	Hours             availability.Hours
	BookingWindowDays int
	Location          *time.Location
	Now               func() time.Time
}

type Service struct {
	store     Store
	directory Directory
	slots     *slotcache.Cache
	handoff   Handoff
	logger    *slog.Logger

	hours      availability.Hours
	windowDays int
	loc        *time.Location
	now        func() time.Time
}

func NewService(store Store, directory Directory, slots *slotcache.Cache, handoff Handoff, logger *slog.Logger, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BookingWindowDays <= 0 {
		cfg.BookingWindowDays = 7
	}
	if cfg.Hours.Interval <= 0 {
		cfg.Hours = availability.DefaultHours()
	}
	return &Service{
		store:      store,
		directory:  directory,
		slots:      slots,
		handoff:    handoff,
		logger:     logger,
		hours:      cfg.Hours,
		windowDays: cfg.BookingWindowDays,
		loc:        cfg.Location,
		now:        cfg.Now,
	}
}

// Today is the current date in the shop time zone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

func (s *Service) Hours() availability.Hours {
	return s.hours
}

// BookableDates lists the dates a customer may pick, starting today.
func (s *Service) BookableDates() []string {
	today := s.now().In(s.loc)
	dates := make([]string, 0, s.windowDays)
	for i := 0; i < s.windowDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format(model.DateLayout))
	}
	return dates
}

func (s *Service) validateDate(date string) error {
	d, err := time.ParseInLocation(model.DateLayout, date, s.loc)
	if err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	now := s.now().In(s.loc)
	if date < now.Format(model.DateLayout) {
		return invalid("date", "must not be in the past")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if d.After(today.AddDate(0, 0, s.windowDays-1)) {
		return invalid("date", "is beyond the booking window")
	}
	return nil
}

// Availability returns every slot of the day for barberID with booked slots
// marked. Results are cached per session. When bookings cannot be read the
// full list is returned as available and nothing is cached.
func (s *Service) Availability(ctx context.Context, session, barberID, date string) ([]availability.Slot, error) {
	barberID = strings.TrimSpace(barberID)
	if barberID == "" {
		return nil, invalid("barber_id", "is required")
	}
	if _, err := time.ParseInLocation(model.DateLayout, date, s.loc); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}

	if cached, ok := s.slots.Get(session, barberID, date); ok {
		return cached, nil
	}

	all := availability.GenerateSlots(s.hours)
	booked, err := s.store.BookedTimes(ctx, barberID, date)
	if err != nil {
		s.logger.Error("booked slots query failed", "err", err, "barber_id", barberID, "date", date)
		return all, nil
	}
	slots := availability.MarkBooked(all, booked)
	s.slots.Put(session, barberID, date, slots)
	return slots, nil
}

type BookingRequest struct {
	Session   string
	UserID    string
	UserName  string
	UserEmail string
	ServiceID string
	BarberID  string
	Date      string
	Time      string
}

// Book runs the booking sequence: validate, re-check the slot, insert, then
// update the session cache and the handoff record.
func (s *Service) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	if req.UserID == "" {
		return model.Appointment{}, invalid("user", "is required")
	}
	svc, ok := catalog.Lookup(strings.TrimSpace(req.ServiceID))
	if !ok {
		return model.Appointment{}, invalid("service_id", "unknown service")
	}
	barberID := strings.TrimSpace(req.BarberID)
	if barberID == "" {
		return model.Appointment{}, invalid("barber_id", "is required")
	}
	if err := s.validateDate(req.Date); err != nil {
		return model.Appointment{}, err
	}
	if !availability.IsSlot(s.hours, req.Time) {
		return model.Appointment{}, invalid("time", "is not a bookable slot")
	}
	barber, err := s.directory.Barber(ctx, barberID)
	if errors.Is(err, model.ErrUnknownBarber) {
		return model.Appointment{}, invalid("barber_id", "unknown barber")
	}
	if err != nil {
		return model.Appointment{}, err
	}

	taken, err := s.store.SlotTaken(ctx, barberID, req.Date, req.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	if taken {
		s.slots.Invalidate(req.Session, barberID, req.Date)
		return model.Appointment{}, model.ErrSlotTaken
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "User"
	}
	appt := model.Appointment{
		UserID:          req.UserID,
		UserName:        name,
		UserEmail:       strings.TrimSpace(req.UserEmail),
		BarberID:        barber.ID,
		BarberName:      barber.Name,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ServicePrice:    svc.PriceValue,
		ServiceDuration: svc.DurationMinutes,
		Date:            req.Date,
		Time:            req.Time,
		Status:          model.StatusConfirmed,
	}
	if appt.StartsAt, err = appt.Start(s.loc); err != nil {
		return model.Appointment{}, invalid("time", "is not a bookable slot")
	}

	if err := s.store.Create(ctx, &appt); err != nil {
		if errors.Is(err, model.ErrSlotTaken) {
			s.slots.Invalidate(req.Session, barberID, req.Date)
		}
		return model.Appointment{}, err
	}

	s.slots.MarkUnavailable(req.Session, barberID, req.Date, req.Time)
	if s.handoff != nil {
		if err := s.handoff.Put(ctx, appt); err != nil {
			s.logger.Warn("handoff write failed", "err", err, "appointment_id", appt.ID)
		}
	}
	return appt, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	return s.store.ListByUser(ctx, userID)
}

func ownedBy(userID string, check func(model.Appointment) error) func(model.Appointment) error {
	return func(a model.Appointment) error {
		if a.UserID != userID {
			return model.ErrNotFound
		}
		return check(a)
	}
}

// Cancel is the customer cancellation of their own upcoming appointment.
func (s *Service) Cancel(ctx context.Context, userID, id string) (model.Appointment, error) {
	today := s.Today()
	appt, err := s.store.UpdateStatus(ctx, id, model.StatusCancelled, ownedBy(userID, func(a model.Appointment) error {
		if !a.Cancellable(today) {
			return model.ErrNotCancellable
		}
		return nil
	}))
	if err != nil {
		return model.Appointment{}, err
	}
	// The freed slot must show up on the customer's next availability view.
	s.slots.Invalidate(userID, appt.BarberID, appt.Date)
	return appt, nil
}

// DeleteForUser removes a finished or past appointment from the customer's history.
func (s *Service) DeleteForUser(ctx context.Context, userID, id string) error {
	today := s.Today()
	return s.store.Delete(ctx, id, ownedBy(userID, func(a model.Appointment) error {
		if !a.Deletable(today) {
			return model.ErrNotDeletable
		}
		return nil
	}))
}

func (s *Service) AdminList(ctx context.Context, status, search string) ([]model.Appointment, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all, status, search), nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Appointment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SetStatus(ctx context.Context, id, status string) (model.Appointment, error) {
	status = strings.TrimSpace(status)
	if !model.ValidStatus(status) {
		return model.Appointment{}, model.ErrInvalidStatus
	}
	return s.store.UpdateStatus(ctx, id, status, nil)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id, nil)
}

type Dashboard struct {
	TodayAppointments   int                 `json:"today_appointments"`
	PendingAppointments int                 `json:"pending_appointments"`
	TotalRevenue        int                 `json:"total_revenue"`
	TotalCustomers      int                 `json:"total_customers"`
	Upcoming            []model.Appointment `json:"upcoming"`
}

const upcomingLimit = 5

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return summarize(all, s.Today(), s.now()), nil
}

func summarize(all []model.Appointment, today string, now time.Time) Dashboard {
	d := Dashboard{Upcoming: []model.Appointment{}}
	customers := map[string]struct{}{}
	var upcoming []model.Appointment
	for _, a := range all {
		if a.Date == today {
			d.TodayAppointments++
		}
		switch a.Status {
		case model.StatusPending:
			d.PendingAppointments++
		case model.StatusCompleted:
			d.TotalRevenue += a.ServicePrice
		}
		customers[a.UserID] = struct{}{}
		if a.Status != model.StatusCancelled && a.StartsAt.After(now) {
			upcoming = append(upcoming, a)
		}
	}
	d.TotalCustomers = len(customers)

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartsAt.Before(upcoming[j].StartsAt)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	d.Upcoming = append(d.Upcoming, upcoming...)
	return d
}
