// Package scheduler runs maintenance passes on a cron schedule. A tick that
// arrives while a pass is still running is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Taha-mlaiki/TrackTruck"
)

// DefaultSpec runs a pass every day at 08:00.
const DefaultSpec = "0 8 * * *"

// ErrPassRunning is returned by RunOnce while another pass is in flight.
var ErrPassRunning = errors.New("tracktruck/scheduler: a pass is already running")

// Runner runs one evaluation pass. *tracktruck.Engine implements it.
type Runner interface {
	CheckAllRules(ctx context.Context) (*tracktruck.PassReport, error)
}

// Scheduler triggers Runner on a cron schedule.
type Scheduler struct {
	runner   Runner
	spec     string
	location *time.Location
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	last    atomic.Pointer[tracktruck.PassReport]
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSpec sets the cron expression (five fields or a descriptor such as
// "@every 1h").
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithLocation sets the time zone the spec is interpreted in.
func WithLocation(loc *time.Location) Option { return func(s *Scheduler) { s.location = loc } }

// WithTimeout bounds each scheduled pass. Zero means no bound.
func WithTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.logger = l } }

// New creates a Scheduler and validates its spec.
func New(runner Runner, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		runner:   runner,
		spec:     DefaultSpec,
		location: time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if runner == nil {
		return nil, errors.New("tracktruck/scheduler: runner is required")
	}
	if _, err := cron.ParseStandard(s.spec); err != nil {
		return nil, fmt.Errorf("tracktruck/scheduler: invalid spec %q: %w", s.spec, err)
	}
	return s, nil
}

// Spec returns the cron expression.
func (s *Scheduler) Spec() string { return s.spec }

// Start begins scheduling. Passes run under a context derived from ctx's
// values that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("tracktruck/scheduler: already started")
	}

	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New(cron.WithLocation(s.location), cron.WithChain(s.chain()))
	if _, err := c.AddFunc(s.spec, s.tick); err != nil {
		s.cancel()
		return fmt.Errorf("tracktruck/scheduler: add job: %w", err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("maintenance scheduler started", slog.String("spec", s.spec))
	return nil
}

// Stop stops scheduling, cancels a running pass and waits for it to return
// or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := c.Stop()
	cancel()
	select {
	case <-done.Done():
		s.logger.Info("maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a pass is in flight.
func (s *Scheduler) Running() bool { return s.running.Load() }

// LastReport returns the report of the most recent finished pass, or nil.
func (s *Scheduler) LastReport() *tracktruck.PassReport { return s.last.Load() }

// RunOnce runs a pass immediately unless one is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (*tracktruck.PassReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrPassRunning
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.runner.CheckAllRules(ctx)
	if report != nil {
		s.last.Store(report)
	}
	return report, err
}

// chain wraps scheduled jobs so a panicking pass is logged instead of
// crashing the process.
func (s *Scheduler) chain() cron.JobWrapper {
	return cron.Recover(cronLogger{s.logger})
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		return
	}

	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrPassRunning):
		s.logger.Warn("maintenance pass still running, skipping tick")
	case err != nil:
		s.logger.Error("scheduled maintenance pass failed", slog.String("error", err.Error()))
	}
}
