// Package jobs runs the periodic maintenance work: completing elapsed
// sessions, sending session reminders and snapshotting the store.
package jobs

import (
	"context"
	"fmt"
	"time"

	"peertutor/internal/observability"
	"peertutor/internal/service"
	"peertutor/internal/store"

	"github.com/robfig/cron/v3"
)

// Job names, also used as metric labels.
const (
	CompleteSessions = "complete_sessions"
	SessionReminders = "session_reminders"
	Snapshot         = "snapshot"
)

// Snapshotter persists a copy of the store.
type Snapshotter interface {
	Save(ctx context.Context, d store.Dataset) error
}

type job struct {
	spec string
	run  func(ctx context.Context) (map[string]any, error)
}

// Scheduler wraps a cron runner with the marketplace jobs.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]job
	ctx  context.Context
}

// NewScheduler builds the job table. snapshots may be nil, in which case
// the snapshot job is not registered.
func NewScheduler(bookings *service.BookingService, s *store.Store, snapshots Snapshotter, interval time.Duration) *Scheduler {
	sched := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		jobs: map[string]job{
			CompleteSessions: {
				spec: "* * * * *",
				run: func(ctx context.Context) (map[string]any, error) {
					return map[string]any{"completed": bookings.CompleteElapsed(ctx)}, nil
				},
			},
			SessionReminders: {
				spec: "* * * * *",
				run: func(ctx context.Context) (map[string]any, error) {
					return map[string]any{"reminded": bookings.RemindUpcoming(ctx)}, nil
				},
			},
		},
		ctx: context.Background(),
	}

	if snapshots != nil && interval > 0 {
		sched.jobs[Snapshot] = job{
			spec: "@every " + interval.String(),
			run: func(ctx context.Context) (map[string]any, error) {
				stats := s.Stats()
				if err := snapshots.Save(ctx, s.Snapshot()); err != nil {
					return nil, err
				}
				return map[string]any{"users": stats.Users, "sessions": stats.Sessions}, nil
			},
		}
	}
	return sched
}

// Start registers every job and starts the runner. Jobs run with ctx
// until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	for name, j := range s.jobs {
		if _, err := s.cron.AddFunc(j.spec, func() { _ = s.RunOnce(s.ctx, name) }); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	s.cron.Start()
	observability.GlobalLogger.Info("Job scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Has reports whether the named job is registered.
func (s *Scheduler) Has(name string) bool {
	_, ok := s.jobs[name]
	return ok
}

// RunOnce runs the named job immediately.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	start := time.Now()
	observability.LogAsyncOperationStart(ctx, name, nil)
	fields, err := j.run(ctx)
	if err != nil {
		observability.JobRunsTotal.WithLabelValues(name, "error").Inc()
		observability.LogAsyncOperationError(ctx, name, err, map[string]any{"duration_ms": time.Since(start).Milliseconds()})
		return fmt.Errorf("job %s: %w", name, err)
	}

	observability.JobRunsTotal.WithLabelValues(name, "ok").Inc()
	if fields == nil {
		fields = map[string]any{}
	}
	fields["duration_ms"] = time.Since(start).Milliseconds()
	observability.LogAsyncOperationEnd(ctx, name, fields)
	return nil
}
