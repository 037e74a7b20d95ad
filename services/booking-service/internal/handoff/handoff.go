// Package handoff holds the most recent booking for a customer until the
// appointments view picks it up once.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kv"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const keyPrefix = "handoff:new_appointment:"

type Store struct {
	kv  kv.Store
	ttl time.Duration
}

func New(store kv.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Store{kv: store, ttl: ttl}
}

func (s *Store) Put(ctx context.Context, appt model.Appointment) error {
	b, err := json.Marshal(appt)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPrefix+appt.UserID, b, s.ttl)
}

// Take returns the pending record and removes it. ok is false when there is none.
func (s *Store) Take(ctx context.Context, userID string) (model.Appointment, bool, error) {
	b, err := s.kv.GetDel(ctx, keyPrefix+userID)
	if errors.Is(err, kv.ErrNotFound) {
		return model.Appointment{}, false, nil
	}
	if err != nil {
		return model.Appointment{}, false, err
	}
	var appt model.Appointment
	if err := json.Unmarshal(b, &appt); err != nil {
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}
