package simulation

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixAM = time.Date(2025, time.January, 15, 6, 0, 0, 0, time.UTC)

func newQuietCascade(t *testing.T) *CascadeModel {
	t.Helper()
	m, err := NewCascade(DefaultCascadeSensors(), WithoutNoise(), WithClock(FixedClock(sixAM)))
	require.NoError(t, err)
	return m
}

func TestCascadeMeanPath(t *testing.T) {
	m := newQuietCascade(t)

	assert.InDelta(t, -20.0, m.Ambient(sixAM), 1e-9)
	assert.InDelta(t, 95.0, m.SourceTarget(-20), 1e-9)

	snap := m.Advance()
	want := map[string]float64{
		"supply_from_station_temp":      85.5,
		"supply_from_station_pressure":  6.5,
		"forward_to_consumer_temp":      77.5,
		"forward_to_consumer_pressure":  6.15,
		"return_from_consumer_temp":     65.5,
		"return_from_consumer_pressure": 6.05,
		"return_to_station_temp":        57.5,
		"return_to_station_pressure":    5.7,
	}
	for key, v := range want {
		assert.InDelta(t, v, snap.Values[key], 1e-9, key)
	}
	assert.InDelta(t, -20.0, snap.Derived[DerivedOutdoorTemp], 1e-9)
	assert.InDelta(t, 28.0, snap.Derived[DerivedDeltaT], 1e-9)
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, ModelCascade, snap.Model)
}

func TestCascadeReturnTrailsSupplyByLoopLosses(t *testing.T) {
	m := newQuietCascade(t)
	p := DefaultPhysics()
	minDrop := 2*p.Losses["supply_pipe"].Temp.Mean + p.Losses["boiler"].Temp.Mean + p.Losses["consumer"].Temp.Mean

	for i := 0; i < 50; i++ {
		snap := m.Advance()
		drop := snap.Values["supply_from_station_temp"] - snap.Values["return_to_station_temp"]
		assert.GreaterOrEqual(t, drop, minDrop-0.02)
	}
}

func TestCascadeOrdering(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"mean path", []Option{WithoutNoise(), WithClock(FixedClock(sixAM))}},
		{"noisy", []Option{WithRand(rand.New(rand.NewPCG(42, 0))), WithClock(FixedClock(sixAM))}},
		{"noisy midnight", []Option{WithSeed(7), WithClock(FixedClock(sixAM.Add(18 * time.Hour)))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewCascade(DefaultCascadeSensors(), tt.opts...)
			require.NoError(t, err)
			for i := 0; i < 500; i++ {
				v := m.Advance().Values
				assert.Greater(t, v["supply_from_station_temp"], v["forward_to_consumer_temp"])
				assert.Greater(t, v["forward_to_consumer_temp"], v["return_from_consumer_temp"])
				assert.Greater(t, v["return_from_consumer_temp"], v["return_to_station_temp"])

				assert.GreaterOrEqual(t, v["supply_from_station_pressure"], v["forward_to_consumer_pressure"])
				assert.GreaterOrEqual(t, v["forward_to_consumer_pressure"], v["return_from_consumer_pressure"]-0.01)
				assert.GreaterOrEqual(t, v["return_from_consumer_pressure"], v["return_to_station_pressure"])
			}
		})
	}
}

func TestCascadeSmoothingBound(t *testing.T) {
	m := newQuietCascade(t)
	alpha := DefaultPhysics().Smoothing
	target := m.SourceTarget(-20)

	prev := m.SourceTemperature()
	for i := 0; i < 200; i++ {
		m.Advance()
		cur := m.SourceTemperature()
		assert.LessOrEqual(t, math.Abs(cur-prev), alpha*math.Abs(target-prev)+1e-9)
		assert.LessOrEqual(t, math.Abs(target-cur), math.Abs(target-prev)+1e-9)
		prev = cur
	}
	assert.InDelta(t, target, prev, 0.01)
}

func TestCascadeRange(t *testing.T) {
	sensors := DefaultCascadeSensors()
	m, err := NewCascade(sensors, WithSeed(99))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		snap := m.Advance()
		for _, s := range sensors {
			v := snap.Values[s.Key]
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, s.Min, s.Key)
			assert.LessOrEqual(t, v, s.Max, s.Key)
		}
	}
}

func TestCascadeDeterministic(t *testing.T) {
	run := func() []Snapshot {
		m, err := NewCascade(DefaultCascadeSensors(), WithSeed(1234), WithClock(FixedClock(sixAM)))
		require.NoError(t, err)
		out := make([]Snapshot, 20)
		for i := range out {
			out[i] = m.Advance()
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestCascadeSnapshotOrderFollowsCatalog(t *testing.T) {
	sensors := DefaultCascadeSensors()
	snap := newQuietCascade(t).Advance()

	require.Len(t, snap.Order, len(sensors))
	for i, s := range sensors {
		assert.Equal(t, s.Key, snap.Order[i])
	}
}

func TestCascadeTopologyErrors(t *testing.T) {
	base := DefaultPhysics()

	tests := []struct {
		name   string
		mutate func(p *Physics)
	}{
		{"two roots", func(p *Physics) { p.Segments[1].Upstream = "" }},
		{"branch", func(p *Physics) { p.Segments[2].Upstream = SegmentSupplyStation }},
		{"unknown loss", func(p *Physics) { p.Segments[3].Loss = "heat_pump" }},
		{"cycle", func(p *Physics) { p.Segments[1].Upstream = SegmentReturnStation }},
		{"duplicate id", func(p *Physics) { p.Segments[4].ID = SegmentBoilerInlet }},
		{"bad fraction", func(p *Physics) { p.Segments[2].Fraction = 1.5 }},
		{"no smoothing", func(p *Physics) { p.Smoothing = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Segments = append([]Segment(nil), base.Segments...)
			tt.mutate(&p)
			_, err := NewCascade(DefaultCascadeSensors(), WithPhysics(p))
			assert.ErrorIs(t, err, ErrInvalidTopology)
		})
	}
}

func TestCascadeSensorBindingErrors(t *testing.T) {
	t.Run("unknown segment", func(t *testing.T) {
		sensors := DefaultCascadeSensors()
		sensors[2].Segment = "attic"
		_, err := NewCascade(sensors)
		assert.ErrorIs(t, err, ErrInvalidTopology)
	})
	t.Run("two sensors one slot", func(t *testing.T) {
		sensors := DefaultCascadeSensors()
		sensors[2].Segment = SegmentSupplyStation
		_, err := NewCascade(sensors)
		assert.ErrorIs(t, err, ErrInvalidTopology)
	})
	t.Run("no source sensor", func(t *testing.T) {
		_, err := NewCascade(DefaultCascadeSensors()[1:])
		assert.ErrorIs(t, err, ErrInvalidTopology)
	})
	t.Run("invalid sensor", func(t *testing.T) {
		sensors := DefaultCascadeSensors()
		sensors[0].Min = 120
		_, err := NewCascade(sensors)
		assert.ErrorIs(t, err, ErrInvalidSensor)
	})
}
