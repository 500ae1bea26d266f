package transmission

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/Resanso/substation-simulator/internal/simulation"
)

// DefaultTimeout bounds a single send.
const DefaultTimeout = 5 * time.Second

// Statistics summarizes delivery outcomes since start.
type Statistics struct {
	Success     uint64  `json:"success"`
	Failed      uint64  `json:"failed"`
	Total       uint64  `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// Transmitter sends snapshots through a Sink, one attempt per snapshot, and
// counts the outcomes.
type Transmitter struct {
	sink     Sink
	identity Identity
	sensors  []simulation.Sensor
	timeout  time.Duration
	logger   *slog.Logger

	success atomic.Uint64
	failed  atomic.Uint64
}

// Option customizes a Transmitter.
type Option func(*Transmitter)

// WithTimeout overrides the per-send timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transmitter) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-send outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transmitter) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Transmitter describing readings with sensors.
func New(sink Sink, id Identity, sensors []simulation.Sensor, opts ...Option) *Transmitter {
	t := &Transmitter{
		sink:     sink,
		identity: id,
		sensors:  sensors,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send delivers snap and reports whether the collector accepted it. Failures
// are counted and logged, never returned.
func (t *Transmitter) Send(ctx context.Context, snap simulation.Snapshot) bool {
	payload := NewPayload(t.identity, t.sensors, snap)

	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.sink.Send(sendCtx, payload); err != nil {
		t.failed.Add(1)
		t.logger.Error("send failed", "sink", t.sink.Name(), "tick", snap.Tick, "err", err)
		return false
	}
	t.success.Add(1)
	t.logger.Info("readings sent", "sink", t.sink.Name(), "tick", snap.Tick, "sensors", len(payload.Readings))
	return true
}

// Statistics returns the counters with the success rate in percent, rounded
// to two decimals, or 0 before any send.
func (t *Transmitter) Statistics() Statistics {
	ok := t.success.Load()
	bad := t.failed.Load()
	st := Statistics{Success: ok, Failed: bad, Total: ok + bad}
	if st.Total > 0 {
		st.SuccessRate = math.Round(float64(ok)/float64(st.Total)*100*100) / 100
	}
	return st
}

// Close releases the sink.
func (t *Transmitter) Close() error {
	return t.sink.Close()
}
