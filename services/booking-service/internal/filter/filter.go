// Package filter narrows an in-memory appointment list by status and free text.
package filter

import (
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// StatusAll disables status filtering, as does an empty status.
const StatusAll = "all"

// Apply keeps list order. Search matches customer name, customer email or
// service name, case-insensitively.
func Apply(list []model.Appointment, status, search string) []model.Appointment {
	status = strings.TrimSpace(status)
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if status != "" && status != StatusAll && a.Status != status {
			continue
		}
		if needle != "" && !matches(a, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matches(a model.Appointment, needle string) bool {
	return strings.Contains(strings.ToLower(a.UserName), needle) ||
		strings.Contains(strings.ToLower(a.UserEmail), needle) ||
		strings.Contains(strings.ToLower(a.ServiceName), needle)
}
