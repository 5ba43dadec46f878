package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSchedulerInterval = time.Hour

// RunnerFunc performs one pass of a background job.
type RunnerFunc func(context.Context) error

// Scheduler runs a job on a fixed interval and on demand.
type Scheduler struct {
	name         string
	interval     time.Duration
	runner       RunnerFunc
	logger       *zap.Logger
	runOnStart   bool
	trigger      chan struct{}
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler builds a Scheduler. A non-positive interval defaults to one hour.
func NewScheduler(name string, interval time.Duration, runner RunnerFunc, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		runner:   runner,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// RunOnStart makes Start queue one run right away instead of waiting a full interval.
func (scheduler *Scheduler) RunOnStart() *Scheduler {
	scheduler.runOnStart = true
	return scheduler
}

// Start launches the loop. Starting a running scheduler does nothing.
func (scheduler *Scheduler) Start(ctx context.Context) {
	if scheduler == nil || scheduler.runner == nil {
		return
	}
	scheduler.controlMutex.Lock()
	if scheduler.cancel != nil {
		scheduler.controlMutex.Unlock()
		return
	}
	runtimeCtx, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	done := make(chan struct{})
	scheduler.done = done
	scheduler.controlMutex.Unlock()

	scheduler.logger.Info("scheduler_started", zap.String("job", scheduler.name), zap.Duration("interval", scheduler.interval))
	go scheduler.loop(runtimeCtx, done)
	if scheduler.runOnStart {
		scheduler.Trigger()
	}
}

// Trigger requests an immediate run. Requests made while one is pending are coalesced.
func (scheduler *Scheduler) Trigger() {
	if scheduler == nil {
		return
	}
	select {
	case scheduler.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (scheduler *Scheduler) Stop() {
	if scheduler == nil {
		return
	}
	scheduler.controlMutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
		scheduler.logger.Info("scheduler_stopped", zap.String("job", scheduler.name))
	}
}

// Run blocks until ctx ends, running the job on schedule.
func (scheduler *Scheduler) Run(ctx context.Context) error {
	scheduler.Start(ctx)
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func (scheduler *Scheduler) loop(ctx context.Context, done chan struct{}) {
	timer := time.NewTimer(scheduler.interval)
	defer timer.Stop()
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduler.trigger:
			scheduler.run(ctx)
		case <-timer.C:
			scheduler.run(ctx)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(scheduler.interval)
	}
}

func (scheduler *Scheduler) run(ctx context.Context) {
	if scheduler.runner == nil {
		return
	}
	startedAt := time.Now()
	if err := scheduler.runner(ctx); err != nil {
		scheduler.logger.Warn("scheduler_run_failed", zap.String("job", scheduler.name), zap.Error(err))
		return
	}
	scheduler.logger.Debug("scheduler_run_completed", zap.String("job", scheduler.name), zap.Duration("elapsed", time.Since(startedAt)))
}
