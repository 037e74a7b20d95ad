package inbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// memoryRecorder keeps an id only when fn succeeds, like the transactional repository.
type memoryRecorder struct {
	seen map[string]bool
	err  error
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{seen: map[string]bool{}}
}

func (m *memoryRecorder) Apply(ctx context.Context, eventID, _ string, fn func(context.Context) error) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	m.seen[eventID] = true
	return true, nil
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	if len(r.msgs) == 0 {
		r.cancel()
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func newTestConsumer(rec Recorder, handler Handler) *Consumer {
	return &Consumer{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:      rec,
		handler:    handler,
		retryDelay: time.Millisecond,
	}
}

func message(id string) kafka.Message {
	return kafka.Message{
		Topic: "barbers.barber.upserted.v1",
		Headers: []kafka.Header{
			{Key: kafkax.HeaderEventID, Value: []byte(id)},
			{Key: kafkax.HeaderEventType, Value: []byte("barbers.barber.upserted.v1")},
		},
	}
}

func TestDuplicateEventsSkipped(t *testing.T) {
	calls := 0
	c := newTestConsumer(newMemoryRecorder(), func(context.Context, kafka.Message) error {
		calls++
		return nil
	})
	ctx := context.Background()

	for _, id := range []string{"evt-1", "evt-1", "evt-2"} {
		if err := c.process(ctx, message(id)); err != nil {
			t.Fatalf("process %s: %v", id, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestFailedEventIsHandledOnRedelivery(t *testing.T) {
	calls := 0
	c := newTestConsumer(newMemoryRecorder(), func(context.Context, kafka.Message) error {
		calls++
		if calls == 1 {
			return errors.New("db down")
		}
		return nil
	})
	ctx := context.Background()

	if err := c.process(ctx, message("evt-1")); err == nil {
		t.Fatal("expected handler failure to be reported")
	}
	if err := c.process(ctx, message("evt-1")); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected redelivery to reach the handler, got %d calls", calls)
	}
	if err := c.process(ctx, message("evt-1")); err != nil || calls != 2 {
		t.Fatalf("expected applied event to be skipped, err=%v calls=%d", err, calls)
	}
}

func TestRecorderFailureSkipsHandler(t *testing.T) {
	rec := newMemoryRecorder()
	rec.err = errors.New("db down")
	c := newTestConsumer(rec, func(context.Context, kafka.Message) error {
		t.Fatal("handler must not run")
		return nil
	})
	if err := c.process(context.Background(), message("evt-1")); err == nil {
		t.Fatal("expected recorder failure to be reported")
	}
}

func TestRunCommitsOnlyAfterHandling(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reader := &fakeReader{msgs: []kafka.Message{message("evt-1"), message("evt-2")}, cancel: cancel}
	calls := map[string]int{}
	c := newTestConsumer(newMemoryRecorder(), func(_ context.Context, msg kafka.Message) error {
		id := kafkax.ExtractEventMeta(msg).EventID
		calls[id]++
		if id == "evt-1" && calls[id] == 1 {
			if len(reader.committed) != 0 {
				t.Error("message committed before it was handled")
			}
			return errors.New("db down")
		}
		return nil
	})
	c.reader = reader

	c.Run(ctx)

	if calls["evt-1"] != 2 || calls["evt-2"] != 1 {
		t.Fatalf("unexpected handler calls %v", calls)
	}
	if len(reader.committed) != 2 || kafkax.ExtractEventMeta(reader.committed[0]).EventID != "evt-1" {
		t.Fatalf("unexpected commits %+v", reader.committed)
	}
	if !reader.closed {
		t.Fatal("expected reader to be closed")
	}
}
