// Package slotcache remembers computed slot lists per (session, barber, date)
// so repeated availability views skip the appointment query.
package slotcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
)

type Cache struct {
	lru *expirable.LRU[string, []availability.Slot]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{lru: expirable.NewLRU[string, []availability.Slot](size, nil, ttl)}
}

func key(session, barberID, date string) string {
	return session + "|" + barberID + "|" + date
}

func (c *Cache) Get(session, barberID, date string) ([]availability.Slot, bool) {
	slots, ok := c.lru.Get(key(session, barberID, date))
	if !ok {
		return nil, false
	}
	return clone(slots), true
}

func (c *Cache) Put(session, barberID, date string, slots []availability.Slot) {
	c.lru.Add(key(session, barberID, date), clone(slots))
}

// MarkUnavailable flips one label in an existing entry. Missing entries are left alone.
func (c *Cache) MarkUnavailable(session, barberID, date, label string) {
	k := key(session, barberID, date)
	slots, ok := c.lru.Peek(k)
	if !ok {
		return
	}
	updated := clone(slots)
	for i := range updated {
		if updated[i].Time == label {
			updated[i].Available = false
		}
	}
	c.lru.Add(k, updated)
}

func (c *Cache) Invalidate(session, barberID, date string) {
	c.lru.Remove(key(session, barberID, date))
}

func clone(slots []availability.Slot) []availability.Slot {
	out := make([]availability.Slot, len(slots))
	copy(out, slots)
	return out
}
