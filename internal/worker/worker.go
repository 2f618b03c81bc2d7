// Package worker runs the background jobs that fire due reminder occurrences
// and complete reminders whose date range has ended.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DispatchSpec = "@every 1m"
	SweepSpec    = "@daily"

	jobTimeout = 50 * time.Second
)

type dispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

type sweeper interface {
	CompleteExpired(ctx context.Context) (int, error)
}

// Runner owns the cron scheduler. Overlapping runs of the same job are skipped.
type Runner struct {
	cron     *cron.Cron
	dispatch dispatcher
	sweep    sweeper
	log      *zap.Logger
	now      func() time.Time
}

func NewRunner(d dispatcher, s sweeper, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Sugar()}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		dispatch: d,
		sweep:    s,
		log:      log,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler in its own goroutine.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(DispatchSpec, r.DispatchOnce); err != nil {
		return fmt.Errorf("schedule dispatch: %w", err)
	}
	if _, err := r.cron.AddFunc(SweepSpec, r.SweepOnce); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	r.cron.Start()
	r.log.Info("worker started", zap.String("dispatch", DispatchSpec), zap.String("sweep", SweepSpec))
	return nil
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.log.Info("worker stopped")
	case <-ctx.Done():
		r.log.Warn("worker stop timed out", zap.Error(ctx.Err()))
	}
}

func (r *Runner) DispatchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := r.dispatch.DispatchDue(ctx, r.now())
	if err != nil {
		r.log.Error("dispatch due occurrences", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("occurrences dispatched", zap.Int("count", n))
	}
}

func (r *Runner) SweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := r.sweep.CompleteExpired(ctx)
	if err != nil {
		r.log.Error("complete expired reminders", zap.Error(err))
		return
	}
	r.log.Info("reminder sweep finished", zap.Int("completed", n))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
