package workers

import (
	"chat-hub/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker samples the hub process on a fixed interval and stores the
// result in the monitoring manager, read back by the admin snapshot.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.MonitoringManager, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(p)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *HeartbeatWorker) sample(p *process.Process) {
	stats, err := selfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
		return
	}
	w.monitoring.UpdateProcess(stats)
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (observability.ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	return observability.ProcessStats{
		PID:        p.Pid,
		Status:     status,
		CPUPercent: cpuPercent,
		RSSBytes:   memInfo.RSS,
		SampledAt:  time.Now().UTC(),
	}, nil
}
