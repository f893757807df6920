package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a Pruner on a cron schedule. Runs never overlap: a run
// still in progress when the next one fires causes that one to be skipped.
type Scheduler struct {
	pruner *Pruner
	logger *slog.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	schedule cron.Schedule
}

// NewScheduler returns an idle scheduler for p.
func NewScheduler(p *Pruner) *Scheduler {
	return &Scheduler{pruner: p, logger: p.logger.With("component", "audit.scheduler")}
}

// Start schedules pruning with the pruner's PruneSchedule, a five field
// cron expression or descriptor such as "@daily". An empty schedule is not
// an error; nothing is scheduled. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := s.pruner.config.PruneSchedule
	if spec == "" {
		s.logger.Info("no prune schedule configured")
		return nil
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	cl := cronLogger{s.logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	s.cron.Schedule(sched, cron.FuncJob(func() { s.prune(ctx) }))
	s.schedule = sched
	s.cron.Start()

	s.logger.Info("audit pruning scheduled",
		"schedule", spec,
		"retention_days", s.pruner.config.RetentionDays,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) prune(ctx context.Context) {
	n, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled prune failed", "error", err)
		return
	}
	s.logger.Debug("scheduled prune finished", "deleted", n)
}

// Stop halts the schedule and waits for a running prune to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron, s.schedule = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("audit pruning stopped")
}

// IsRunning reports whether a schedule is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// NextRun is the next time a prune fires, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return nil
	}
	next := s.schedule.Next(time.Now())
	return &next
}

// cronLogger routes the cron package's own logging to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
