// Package sweeper runs the expiration sweep on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/metrics"
	"github.com/dmitrijs2005/accessportal/internal/server/reports"
	"github.com/dmitrijs2005/accessportal/internal/server/services"
	"github.com/robfig/cron/v3"
)

// Runner performs one sweep. services.AccessService satisfies it.
type Runner interface {
	Sweep(ctx context.Context) (services.SweepReport, error)
}

// Sweeper triggers Runner on schedule. Runs never overlap: a scheduled run
// is skipped while another is in progress and RunNow waits for it.
type Sweeper struct {
	runner  Runner
	archive reports.Archive
	log     logging.Logger
	cron    *cron.Cron
	loc     *time.Location
	mu      sync.Mutex
	baseCtx context.Context
}

// New parses schedule (standard five-field cron) in loc.
func New(runner Runner, archive reports.Archive, schedule string, loc *time.Location, log logging.Logger) (*Sweeper, error) {
	if archive == nil {
		archive = reports.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Sweeper{
		runner:  runner,
		archive: archive,
		log:     log.With("module", "sweeper"),
		loc:     loc,
		baseCtx: context.Background(),
	}

	cl := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(schedule, s.scheduled); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling. Scheduled runs use ctx.
func (s *Sweeper) Start(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()
	s.log.Info(ctx, "sweeper started", "next_run", s.Next())
}

// Stop halts scheduling and waits for a running sweep or ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled run time.
func (s *Sweeper) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

func (s *Sweeper) scheduled() {
	if _, err := s.RunNow(s.baseCtx); err != nil {
		s.log.Error(s.baseCtx, "scheduled sweep failed", "error", err)
	}
}

// RunNow sweeps immediately, archives the report and records metrics.
func (s *Sweeper) RunNow(ctx context.Context) (services.SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report, err := s.runner.Sweep(ctx)
	metrics.RecordSweep(time.Since(start), report.Warned, report.WarnFailures, report.Expired, err == nil)
	if err != nil {
		return report, err
	}

	key, aerr := s.archive.Store(ctx, report.StartedAt, report)
	if aerr != nil {
		s.log.Warn(ctx, "archive sweep report", "error", aerr)
	} else if key != "" {
		s.log.Debug(ctx, "sweep report archived", "key", key)
	}
	return report, nil
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}
