package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"context"
	"log/slog"
)

// RelayWorker feeds the broadcasts of the other instances to the local coordinator.
// A broken subscription is returned as an error so the supervisor resubscribes.
type RelayWorker struct {
	log     *slog.Logger
	broker  contract.Broker
	deliver func(ctx context.Context, env event.Envelope)
}

func NewRelayWorker(log *slog.Logger, broker contract.Broker, deliver func(ctx context.Context, env event.Envelope)) *RelayWorker {
	return &RelayWorker{log: log, broker: broker, deliver: deliver}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	w.log.Info("Starting relay worker")
	if err := w.broker.Subscribe(ctx, w.deliver); err != nil {
		return err
	}
	return nil
}
