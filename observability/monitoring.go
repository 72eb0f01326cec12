package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ProcessStats describes the hub process itself.
type ProcessStats struct {
	PID        int32     `json:"pid"`
	Status     string    `json:"status"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	AllocMemMb uint64    `json:"alloc_mem_mb"`
	NumGC      uint32    `json:"num_gc"`
	Goroutines int       `json:"goroutines"`
	SampledAt  time.Time `json:"sampled_at"`
}

// ChannelUsage is the last fill level sampled for a buffered channel.
type ChannelUsage struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

// MonitoringStats aggregates the delivery counters and the last process sample.
type MonitoringStats struct {
	FramesSent    uint64                  `json:"frames_sent"`
	FramesDropped uint64                  `json:"frames_dropped"`
	InvalidFrames uint64                  `json:"invalid_frames"`
	RateLimited   uint64                  `json:"rate_limited"`
	Published     uint64                  `json:"published"`
	PublishErrors uint64                  `json:"publish_errors"`
	Relayed       uint64                  `json:"relayed"`
	TelemetryLost uint64                  `json:"telemetry_lost"`
	Process       ProcessStats            `json:"process"`
	Channels      map[string]ChannelUsage `json:"channels"`
}

// MonitoringManager collects the hub counters. Counters are updated atomically
// from any goroutine, the process sample is refreshed by the heartbeat worker.
type MonitoringManager struct {
	log      *slog.Logger
	mu       sync.RWMutex
	process  ProcessStats
	channels map[string]ChannelUsage

	FramesSent    uint64
	FramesDropped uint64
	InvalidFrames uint64
	RateLimited   uint64
	Published     uint64
	PublishErrors uint64
	Relayed       uint64
	TelemetryLost uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, channels: make(map[string]ChannelUsage)}
}

func (mm *MonitoringManager) IncrFramesSent() {
	atomic.AddUint64(&mm.FramesSent, 1)
}

func (mm *MonitoringManager) IncrFramesDropped() {
	atomic.AddUint64(&mm.FramesDropped, 1)
}

func (mm *MonitoringManager) IncrInvalidFrames() {
	atomic.AddUint64(&mm.InvalidFrames, 1)
}

func (mm *MonitoringManager) IncrRateLimited() {
	atomic.AddUint64(&mm.RateLimited, 1)
}

func (mm *MonitoringManager) IncrPublished() {
	atomic.AddUint64(&mm.Published, 1)
}

func (mm *MonitoringManager) IncrPublishErrors() {
	atomic.AddUint64(&mm.PublishErrors, 1)
}

func (mm *MonitoringManager) IncrRelayed() {
	atomic.AddUint64(&mm.Relayed, 1)
}

func (mm *MonitoringManager) IncrTelemetryLost() {
	atomic.AddUint64(&mm.TelemetryLost, 1)
}

// UpdateProcess stores a process sample completed with Go runtime metrics.
func (mm *MonitoringManager) UpdateProcess(stats ProcessStats) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC
	stats.Goroutines = runtime.NumGoroutine()
	if stats.SampledAt.IsZero() {
		stats.SampledAt = time.Now().UTC()
	}

	mm.mu.Lock()
	mm.process = stats
	mm.mu.Unlock()

	mm.log.Debug("Process stats updated",
		"cpu_percent", stats.CPUPercent,
		"rss_bytes", stats.RSSBytes,
		"goroutines", stats.Goroutines,
	)
}

// UpdateChannel records the fill level of a named channel.
func (mm *MonitoringManager) UpdateChannel(name string, length, capacity int) {
	mm.mu.Lock()
	mm.channels[name] = ChannelUsage{Length: length, Capacity: capacity}
	mm.mu.Unlock()
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	process := mm.process
	channels := make(map[string]ChannelUsage, len(mm.channels))
	for name, usage := range mm.channels {
		channels[name] = usage
	}
	mm.mu.RUnlock()

	return MonitoringStats{
		FramesSent:    atomic.LoadUint64(&mm.FramesSent),
		FramesDropped: atomic.LoadUint64(&mm.FramesDropped),
		InvalidFrames: atomic.LoadUint64(&mm.InvalidFrames),
		RateLimited:   atomic.LoadUint64(&mm.RateLimited),
		Published:     atomic.LoadUint64(&mm.Published),
		PublishErrors: atomic.LoadUint64(&mm.PublishErrors),
		Relayed:       atomic.LoadUint64(&mm.Relayed),
		TelemetryLost: atomic.LoadUint64(&mm.TelemetryLost),
		Process:       process,
		Channels:      channels,
	}
}
