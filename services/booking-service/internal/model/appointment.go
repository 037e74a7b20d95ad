package model

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DateLayout is the wire and storage format of Appointment.Date.
const DateLayout = "2006-01-02"

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrSlotTaken      = errors.New("time slot already booked")
	ErrNotCancellable = errors.New("appointment cannot be cancelled")
	ErrNotDeletable   = errors.New("appointment cannot be deleted")
	ErrInvalidStatus  = errors.New("invalid appointment status")
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is one booking of a barber at a date and time label ("3:30 PM").
type Appointment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	BarberID        string    `json:"barber_id"`
	BarberName      string    `json:"barber"`
	ServiceID       string    `json:"service_id"`
	ServiceName     string    `json:"service"`
	ServicePrice    int       `json:"service_price"`
	ServiceDuration int       `json:"service_duration"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Status          string    `json:"status"`
	StartsAt        time.Time `json:"starts_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Start combines Date and Time in loc.
func (a Appointment) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" 3:04 PM", a.Date+" "+a.Time, loc)
}

// Cancellable holds while the appointment is still active and not in the past.
func (a Appointment) Cancellable(today string) bool {
	return a.Status != StatusCancelled && a.Date >= today
}

// Deletable holds for finished or past appointments.
func (a Appointment) Deletable(today string) bool {
	return a.Status == StatusCancelled || a.Status == StatusCompleted || a.Date < today
}
