package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout hands the coordinator's telemetry events to the permanent sinks.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. EventFanout is not a message broker: room
// broadcasts never go through it.
//
// Sinks are consumed one after the other so each of them sees the events in
// order, every call being bounded by the sink timeout.
type EventFanout struct {
	log         *slog.Logger
	telemetry   chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, telemetry chan event.DomainEvent, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, telemetry: telemetry, sinkTimeout: sinkTimeout, sinks: sinks}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.telemetry:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event", "event", evt.Name(), "room_id", evt.RoomID(), "error", err)
		}
		cancel()
	}
}
