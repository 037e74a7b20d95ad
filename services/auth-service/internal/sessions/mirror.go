package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kv"
)

// Record is the last known session of a user. It answers role lookups when
// the users table cannot be reached.
type Record struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Mirror struct {
	store kv.Store
	ttl   time.Duration
}

func NewMirror(store kv.Store, ttl time.Duration) *Mirror {
	return &Mirror{store: store, ttl: ttl}
}

func mirrorKey(userID string) string {
	return "session:" + userID
}

func (m *Mirror) Put(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, mirrorKey(rec.UserID), raw, m.ttl)
}

func (m *Mirror) Get(ctx context.Context, userID string) (Record, bool, error) {
	raw, err := m.store.Get(ctx, mirrorKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (m *Mirror) Clear(ctx context.Context, userID string) error {
	return m.store.Delete(ctx, mirrorKey(userID))
}
