package workers

import (
	"chat-hub/contract"
	"chat-hub/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervisor owns the lifetime of the hub background workers.
// Each worker runs in its own goroutine, a panic or an error restarts it after
// restartInterval, a nil return ends it for good. Canceling the parent context
// stops everything and Run returns once every goroutine is gone.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run blocks until every supervised worker is finished.
// Canceling ctx or calling Stop ends the supervised context.
func (s *Supervisor) Run(ctx context.Context) {
	// 1. Derive the supervised context, canceled with the parent or by Stop
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	// 2. Launch every registered worker
	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}

	// 3. Wait for the last goroutine
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision.
// A failure in one worker never stops the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			// 1. Run the worker, a panic becomes an error
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("Worker panicked", "name", workerName, "panic", r)
						err = errors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			// 2. A clean return is final
			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			// 3. Anything else restarts after the delay unless the context ends first
			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				// Priority stop, no restart delay
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels the supervised context, Run returns once the workers are done.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
