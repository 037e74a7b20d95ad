// Package directory applies barber-service events to the local barber replica.
package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/inbox"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	TopicBarberUpserted = "barbers.barber.upserted.v1"
	TopicBarberDeleted  = "barbers.barber.deleted.v1"
)

func Topics() []string {
	return []string{TopicBarberUpserted, TopicBarberDeleted}
}

type Writer interface {
	Upsert(ctx context.Context, b model.Barber) error
	MarkDeleted(ctx context.Context, id string) error
}

type barberEvent struct {
	BarberID string `json:"barber_id"`
	Name     string `json:"name"`
}

// Handler returns the consumer callback. Malformed events are logged and dropped.
func Handler(repo Writer, logger *slog.Logger) inbox.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt barberEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid barber event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		evt.BarberID = strings.TrimSpace(evt.BarberID)
		if evt.BarberID == "" {
			logger.Error("barber event without barber_id", "topic", msg.Topic)
			return nil
		}

		switch kafkax.ExtractEventMeta(msg).EventType {
		case TopicBarberUpserted:
			return repo.Upsert(ctx, model.Barber{ID: evt.BarberID, Name: evt.Name})
		case TopicBarberDeleted:
			return repo.MarkDeleted(ctx, evt.BarberID)
		default:
			logger.Warn("unexpected barber event", "topic", msg.Topic)
			return nil
		}
	}
}
