package simulation

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	reversionCoefficient = 0.1
	perturbationScale    = 0.1
)

// MeanRevertingModel drives every sensor as an independent bounded random walk
// pulled back toward its baseline and modulated by a daily trend.
type MeanRevertingModel struct {
	cfg     settings
	sensors []Sensor
	carried []float64
	streams []*rand.Rand
}

// NewMeanReverting validates sensors and seeds carried values from baselines.
func NewMeanReverting(sensors []Sensor, opts ...Option) (*MeanRevertingModel, error) {
	if err := ValidateSensors(sensors); err != nil {
		return nil, err
	}
	cfg := newSettings(opts)

	m := &MeanRevertingModel{
		cfg:     cfg,
		sensors: append([]Sensor(nil), sensors...),
		carried: make([]float64, len(sensors)),
		streams: make([]*rand.Rand, len(sensors)),
	}

	known := make(map[string]bool, len(sensors))
	for i, s := range m.sensors {
		known[s.Key] = true
		m.carried[i] = s.Baseline
		if v, ok := cfg.initial[s.Key]; ok {
			m.carried[i] = clamp(v, s.Min, s.Max)
		}
		// Each sensor owns a stream split off the injected source, so the
		// outcome does not depend on evaluation order.
		m.streams[i] = rand.New(rand.NewPCG(cfg.rng.Uint64(), cfg.rng.Uint64()))
	}
	for key := range cfg.initial {
		if !known[key] {
			return nil, fmt.Errorf("%w: initial value for unknown sensor %q", ErrInvalidSensor, key)
		}
	}
	return m, nil
}

// Name implements Generator.
func (m *MeanRevertingModel) Name() string { return ModelReverting }

// Sensors implements Generator.
func (m *MeanRevertingModel) Sensors() []Sensor {
	return append([]Sensor(nil), m.sensors...)
}

// Advance moves every sensor one step and returns the rounded readings.
func (m *MeanRevertingModel) Advance() Snapshot {
	tick, now := m.cfg.clock.Advance()
	trend := 0.0
	if m.cfg.trend {
		trend = diurnal(now)
	}

	if m.cfg.parallel {
		var wg sync.WaitGroup
		for i := range m.sensors {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.step(i, trend)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range m.sensors {
			m.step(i, trend)
		}
	}

	snap := Snapshot{
		Tick:   tick,
		Time:   now,
		Model:  ModelReverting,
		Values: make(map[string]float64, len(m.sensors)),
		Order:  make([]string, len(m.sensors)),
	}
	for i, s := range m.sensors {
		snap.Values[s.Key] = m.carried[i]
		snap.Order[i] = s.Key
	}
	return snap
}

// step writes only slot i, so concurrent calls for distinct sensors are safe.
func (m *MeanRevertingModel) step(i int, trend float64) {
	s := m.sensors[i]
	last := m.carried[i]

	// The trend term shares the reversion rate, so the walk settles at
	// Baseline*(1+TrendFactor*trend) instead of running into the range limits.
	next := last +
		m.cfg.gauss(m.streams[i], s.Variance*perturbationScale) +
		(s.Baseline-last)*reversionCoefficient +
		trend*s.TrendFactor*s.Baseline*reversionCoefficient

	m.carried[i] = clamp(round2(next), s.Min, s.Max)
}

// CarriedValue returns the state carried into the next tick for key.
func (m *MeanRevertingModel) CarriedValue(key string) (float64, bool) {
	for i, s := range m.sensors {
		if s.Key == key {
			return m.carried[i], true
		}
	}
	return 0, false
}
