package availability

import "time"

// LabelLayout renders slot labels such as "9:00 AM" and "4:30 PM".
const LabelLayout = "3:04 PM"

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Hours is the bookable window [Open:00, Close:00) split into Interval steps.
type Hours struct {
	Open     int
	Close    int
	Interval time.Duration
}

func DefaultHours() Hours {
	return Hours{Open: 9, Close: 17, Interval: 30 * time.Minute}
}

func Label(hour, minute int) string {
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format(LabelLayout)
}

// GenerateSlots returns every candidate slot of the day, all available.
// The count depends only on h, never on bookings.
func GenerateSlots(h Hours) []Slot {
	if h.Interval <= 0 || h.Close <= h.Open {
		return nil
	}
	start := time.Duration(h.Open) * time.Hour
	end := time.Duration(h.Close) * time.Hour

	var slots []Slot
	for t := start; t < end; t += h.Interval {
		mins := int(t / time.Minute)
		slots = append(slots, Slot{Time: Label(mins/60, mins%60), Available: true})
	}
	return slots
}

// MarkBooked returns a copy of slots where any slot whose label is booked is unavailable.
func MarkBooked(slots []Slot, booked []string) []Slot {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	out := make([]Slot, len(slots))
	for i, s := range slots {
		_, isTaken := taken[s.Time]
		out[i] = Slot{Time: s.Time, Available: s.Available && !isTaken}
	}
	return out
}

// IsSlot reports whether label is one of the generated labels for h.
func IsSlot(h Hours, label string) bool {
	for _, s := range GenerateSlots(h) {
		if s.Time == label {
			return true
		}
	}
	return false
}
