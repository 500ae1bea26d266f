package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanRevertingConvergesToBaseline(t *testing.T) {
	m, err := NewMeanReverting(DefaultRevertingSensors(),
		WithoutNoise(),
		WithoutTrend(),
		WithInitialValues(map[string]float64{"supply_temp": 95}),
	)
	require.NoError(t, err)

	prev, ok := m.CarriedValue("supply_temp")
	require.True(t, ok)
	assert.Equal(t, 95.0, prev)

	for i := 0; i < 100; i++ {
		snap := m.Advance()
		cur := snap.Values["supply_temp"]
		assert.LessOrEqual(t, math.Abs(cur-75), math.Abs(prev-75)+1e-9, "tick %d", i+1)
		prev = cur
	}
	assert.InDelta(t, 75.0, prev, 0.05)

	carried, _ := m.CarriedValue("supply_temp")
	assert.Equal(t, prev, carried)
}

func TestMeanRevertingRange(t *testing.T) {
	sensors := DefaultRevertingSensors()
	for i := range sensors {
		sensors[i].Variance *= 20
	}
	m, err := NewMeanReverting(sensors, WithSeed(5), WithClock(FixedClock(sixAM.Add(6*time.Hour))))
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		snap := m.Advance()
		for _, s := range sensors {
			v := snap.Values[s.Key]
			assert.GreaterOrEqual(t, v, s.Min, s.Key)
			assert.LessOrEqual(t, v, s.Max, s.Key)
			assert.Equal(t, StatusNormal, s.Classify(v))
		}
	}
}

func TestMeanRevertingTrend(t *testing.T) {
	noon := sixAM.Add(6 * time.Hour)
	m, err := NewMeanReverting(DefaultRevertingSensors(), WithoutNoise(), WithClock(FixedClock(noon)))
	require.NoError(t, err)

	snap := m.Advance()
	// 75 + 0.1 * sin(pi/2) * 0.05 * 75
	assert.InDelta(t, 75.375, snap.Values["supply_temp"], 0.006)

	for i := 0; i < 200; i++ {
		snap = m.Advance()
	}
	// settles at 75 * (1 + 0.05)
	assert.InDelta(t, 78.75, snap.Values["supply_temp"], 0.05)
}

func TestMeanRevertingStaysInsideRangeAllDay(t *testing.T) {
	for _, hour := range []int{0, 3, 9, 12, 15, 21} {
		t.Run(time.Duration(hour*int(time.Hour)).String(), func(t *testing.T) {
			at := time.Date(2024, time.January, 15, hour, 0, 0, 0, time.UTC)
			sensors := DefaultRevertingSensors()
			m, err := NewMeanReverting(sensors, WithSeed(11), WithClock(FixedClock(at)))
			require.NoError(t, err)

			for i := 0; i < 1000; i++ {
				snap := m.Advance()
				for _, s := range sensors {
					v := snap.Values[s.Key]
					assert.Greater(t, v, s.Min, "%s tick %d", s.Key, i+1)
					assert.Less(t, v, s.Max, "%s tick %d", s.Key, i+1)
				}
			}
		})
	}
}

func TestMeanRevertingDeterministic(t *testing.T) {
	run := func(opts ...Option) []Snapshot {
		opts = append(opts, WithSeed(2024), WithClock(FixedClock(sixAM)))
		m, err := NewMeanReverting(DefaultRevertingSensors(), opts...)
		require.NoError(t, err)
		out := make([]Snapshot, 50)
		for i := range out {
			out[i] = m.Advance()
		}
		return out
	}

	sequential := run()
	assert.Equal(t, sequential, run())
	assert.Equal(t, sequential, run(WithParallel()))
}

func TestMeanRevertingInitialValues(t *testing.T) {
	_, err := NewMeanReverting(DefaultRevertingSensors(), WithInitialValues(map[string]float64{"boiler_temp": 60}))
	assert.ErrorIs(t, err, ErrInvalidSensor)

	m, err := NewMeanReverting(DefaultRevertingSensors(), WithInitialValues(map[string]float64{"return_temp": 200}))
	require.NoError(t, err)
	v, _ := m.CarriedValue("return_temp")
	assert.Equal(t, 70.0, v)
}

func TestNewGenerator(t *testing.T) {
	for _, model := range []string{ModelCascade, ModelReverting} {
		t.Run(model, func(t *testing.T) {
			sensors, err := DefaultSensors(model)
			require.NoError(t, err)
			g, err := NewGenerator(model, sensors, WithSeed(3))
			require.NoError(t, err)
			assert.Equal(t, model, g.Name())
			assert.Equal(t, sensors, g.Sensors())

			snap := g.Advance()
			assert.Equal(t, model, snap.Model)
			assert.Len(t, snap.Values, len(sensors))
			for key, st := range ClassifySnapshot(sensors, snap) {
				assert.Equal(t, StatusNormal, st, key)
			}
		})
	}

	_, err := NewGenerator("markov", nil)
	assert.ErrorIs(t, err, ErrUnknownModel)
}
