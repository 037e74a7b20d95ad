package model

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("barber not found")

const DefaultImage = "👨🏻‍💼"

type DayAvailability struct {
	Available bool   `json:"available"`
	Hours     string `json:"hours"`
}

// Availability is a display template per weekday. Bookings do not consult it.
type Availability struct {
	Monday    DayAvailability `json:"monday"`
	Tuesday   DayAvailability `json:"tuesday"`
	Wednesday DayAvailability `json:"wednesday"`
	Thursday  DayAvailability `json:"thursday"`
	Friday    DayAvailability `json:"friday"`
	Saturday  DayAvailability `json:"saturday"`
	Sunday    DayAvailability `json:"sunday"`
}

func DefaultAvailability() Availability {
	weekday := DayAvailability{Available: true, Hours: "9:00 AM - 5:00 PM"}
	return Availability{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  DayAvailability{Available: true, Hours: "9:00 AM - 3:00 PM"},
		Sunday:    DayAvailability{Available: false, Hours: ""},
	}
}

type Barber struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Specialty    string       `json:"specialty"`
	Bio          string       `json:"bio"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	Image        string       `json:"image"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Defaults are created when the shop has no barbers yet.
func Defaults() []Barber {
	seed := []struct{ name, specialty string }{
		{"John Doe", "Classic Cuts"},
		{"Mike Smith", "Fades & Designs"},
		{"Robert Johnson", "Beard Grooming"},
	}
	out := make([]Barber, 0, len(seed))
	for _, s := range seed {
		out = append(out, Barber{
			Name:         s.name,
			Specialty:    s.specialty,
			Image:        DefaultImage,
			Availability: DefaultAvailability(),
		})
	}
	return out
}
