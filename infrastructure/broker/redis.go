package broker

import (
	"chat-hub/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "chat-hub:rooms"

// Redis relays envelopes through a single pub/sub channel shared by all instances.
type Redis struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedis(client *redis.Client, channel string, log *slog.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, log: log}
}

func (r *Redis) Publish(ctx context.Context, env event.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Subscribe waits for the subscription to be confirmed, then delivers every
// envelope until ctx is done. Undecodable payloads are logged and skipped.
func (r *Redis) Subscribe(ctx context.Context, deliver func(ctx context.Context, env event.Envelope)) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			r.log.Debug("Unable to close redis subscription", "error", err)
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info("Subscribed to redis channel", "channel", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("redis channel %s closed", r.channel)
			}
			var env event.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn("Invalid envelope received", "channel", msg.Channel, "error", err)
				continue
			}
			deliver(ctx, env)
		}
	}
}
