package workers

import (
	"chat-hub/observability"
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the fill level of the hub's
// buffered channels. Reading len and cap is non-blocking so sampling never
// interferes with producers or consumers.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	monitoring     *observability.MonitoringManager
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	monitoring *observability.MonitoringManager, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

func (w *ChannelCapacityWorker) Sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		length, capacity := v.Len(), v.Cap()
		if capacity > 0 && length == capacity {
			w.log.Warn("Channel is full", "name", nc.Name, "capacity", capacity)
		}
		w.monitoring.UpdateChannel(nc.Name, length, capacity)
	}
}
