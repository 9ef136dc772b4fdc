package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned by Start while a loop is active.
var ErrAlreadyRunning = errors.New("scheduler already running")

// MinInterval is the finest interval cron can keep; shorter ones are rounded up.
const MinInterval = time.Second

// Job is one unit of scheduled work. A returned error is logged, never fatal.
type Job func(ctx context.Context) error

// Scheduler runs a job once immediately and then on a fixed interval.
// A tick that arrives while the previous run is still busy is skipped.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a stopped scheduler.
func New() *Scheduler { return &Scheduler{} }

// Start begins the loop. Intervals under MinInterval are rejected.
func (s *Scheduler) Start(ctx context.Context, name string, interval time.Duration, job Job) error {
	if interval < MinInterval {
		return fmt.Errorf("interval must be at least %s, got %s", MinInterval, interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	logger := cronLogger{name: name}
	wrapped := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { s.run(ctx, name, job) }))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(cron.Every(interval), wrapped)
	c.Start()
	s.cron = c
	s.running = true

	log.Info().Str("job", name).Dur("interval", interval).Msg("scheduler started")
	go wrapped.Run()
	return nil
}

// Stop prevents further runs. An in-flight run is not interrupted.
// Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	log.Info().Msg("scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		log.Error().Err(err).Str("job", name).Dur("elapsed", time.Since(start)).Msg("scheduled run failed")
		return
	}
	log.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("scheduled run done")
}

// cronLogger routes cron's internal messages to zerolog.
type cronLogger struct{ name string }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Str("job", l.name).Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Str("job", l.name).Fields(keysAndValues).Msg("cron: " + msg)
}
