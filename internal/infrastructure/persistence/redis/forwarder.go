package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

// EventForwarder republishes selected bus events on Redis pub/sub so a
// presentation process can show level-up notifications.
type EventForwarder struct {
	cache   *Cache
	logger  *slog.Logger
	timeout time.Duration
}

// NewEventForwarder creates a forwarder.
func NewEventForwarder(cache *Cache, logger *slog.Logger) *EventForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventForwarder{cache: cache, logger: logger, timeout: 2 * time.Second}
}

// Register subscribes the forwarder to the given event types.
func (f *EventForwarder) Register(sub shared.EventSubscriber, types ...shared.EventType) error {
	for _, t := range types {
		if err := sub.Subscribe(t, f.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle publishes the event payload on a channel named after its type.
// Publish failures are logged, never returned: notifications are best effort.
func (f *EventForwarder) Handle(event shared.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		f.logger.Error("marshal event", "type", event.EventType(), "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := f.cache.Publish(ctx, string(event.EventType()), payload); err != nil {
		f.logger.Warn("publish event", "type", event.EventType(), "error", err)
	}
	return nil
}
