// Package substation drives a readings generator on a fixed interval, one
// tick at a time: generate, report, transmit, and periodically summarize.
package substation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

const defaultStatsEvery = 10

// ErrTickPanic wraps a panic recovered from inside a tick.
var ErrTickPanic = errors.New("tick panicked")

// Transmitter delivers a snapshot and keeps delivery counters.
type Transmitter interface {
	Send(ctx context.Context, snap simulation.Snapshot) bool
	Statistics() transmission.Statistics
}

// Reporter renders ticks and statistics for operators.
type Reporter interface {
	Snapshot(snap simulation.Snapshot)
	Statistics(st transmission.Statistics)
	Stop(st transmission.Statistics)
}

// Status is a point-in-time view of the runner for the status API.
type Status struct {
	Running    bool                         `json:"running"`
	Model      string                       `json:"model"`
	Interval   string                       `json:"interval"`
	Iteration  uint64                       `json:"iteration"`
	StartedAt  time.Time                    `json:"startedAt"`
	Latest     *simulation.Snapshot         `json:"latest,omitempty"`
	Health     map[string]simulation.Status `json:"health,omitempty"`
	Statistics transmission.Statistics      `json:"statistics"`
}

// Runner owns the generator and runs it from a single goroutine.
type Runner struct {
	gen        simulation.Generator
	tx         Transmitter
	rep        Reporter
	logger     *slog.Logger
	interval   time.Duration
	statsEvery uint64
	maxTicks   uint64

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	iteration uint64
	latest    *simulation.Snapshot
}

// Option customizes Runner creation.
type Option func(*Runner)

// WithInterval overrides the pause between ticks.
func WithInterval(interval time.Duration) Option {
	return func(r *Runner) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithStatsEvery prints statistics every n ticks; zero disables them.
func WithStatsEvery(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.statsEvery = uint64(n)
		}
	}
}

// WithMaxTicks stops the loop after n ticks; zero runs until cancelled.
func WithMaxTicks(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxTicks = uint64(n)
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner.
func New(gen simulation.Generator, tx Transmitter, rep Reporter, opts ...Option) *Runner {
	r := &Runner{
		gen:        gen,
		tx:         tx,
		rep:        rep,
		logger:     slog.Default(),
		interval:   simulation.DefaultInterval,
		statsEvery: defaultStatsEvery,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interval returns the configured pause between ticks.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Run loops until ctx is cancelled, the tick limit is reached, or a tick
// panics. Cancellation is observed between ticks; a tick in flight, including
// its transmission, runs to completion. Final statistics are reported on every
// exit path.
func (r *Runner) Run(ctx context.Context) (err error) {
	r.mu.Lock()
	r.running = true
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("substation runner started", "model", r.gen.Name(), "interval", r.interval)
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.rep.Stop(r.tx.Statistics())
		r.logger.Info("substation runner stopped", "iterations", r.Iteration(), "err", err)
	}()

	tickCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := r.safeTick(tickCtx); err != nil {
			return err
		}
		if r.maxTicks > 0 && r.Iteration() >= r.maxTicks {
			return nil
		}

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (r *Runner) safeTick(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, rec)
			r.logger.Error("tick panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	r.tick(ctx)
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	snap := r.gen.Advance()

	r.mu.Lock()
	r.iteration++
	iteration := r.iteration
	r.latest = &snap
	r.mu.Unlock()

	r.rep.Snapshot(snap)
	r.tx.Send(ctx, snap)

	if r.statsEvery > 0 && iteration%r.statsEvery == 0 {
		r.rep.Statistics(r.tx.Statistics())
	}
}

// Iteration returns the number of completed ticks.
func (r *Runner) Iteration() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.iteration
}

// Latest returns the most recent snapshot, if any.
func (r *Runner) Latest() (simulation.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return simulation.Snapshot{}, false
	}
	return *r.latest, true
}

// Status reports the runner state with per-sensor health of the latest snapshot.
func (r *Runner) Status() Status {
	r.mu.RLock()
	st := Status{
		Running:   r.running,
		Model:     r.gen.Name(),
		Interval:  r.interval.String(),
		Iteration: r.iteration,
		StartedAt: r.startedAt,
		Latest:    r.latest,
	}
	r.mu.RUnlock()

	if st.Latest != nil {
		st.Health = simulation.ClassifySnapshot(r.gen.Sensors(), *st.Latest)
	}
	st.Statistics = r.tx.Statistics()
	return st
}

// Statistics returns the transmitter's delivery counters.
func (r *Runner) Statistics() transmission.Statistics {
	return r.tx.Statistics()
}
