package report

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

func cascadeSnapshot(t *testing.T) simulation.Snapshot {
	t.Helper()
	clock := simulation.FixedClock(time.Date(2025, time.January, 15, 6, 0, 0, 0, time.UTC))
	m, err := simulation.NewCascade(simulation.DefaultCascadeSensors(), simulation.WithoutNoise(), simulation.WithClock(clock))
	require.NoError(t, err)
	return m.Advance()
}

func TestDeltaTOptimal(t *testing.T) {
	assert.True(t, DeltaTOptimal(25))
	assert.True(t, DeltaTOptimal(35))
	assert.False(t, DeltaTOptimal(22))
	assert.False(t, DeltaTOptimal(35.1))
}

func TestRenderSnapshotCascade(t *testing.T) {
	out := RenderSnapshot(simulation.DefaultCascadeSensors(), cascadeSnapshot(t))

	assert.Contains(t, out, "Iteration #1 - 2025-01-15 06:00:00")
	assert.Contains(t, out, "Outdoor temperature: -20.0°C")
	assert.Contains(t, out, "Line 1 - SUPPLY STATION")
	assert.Contains(t, out, "Line 4 - RETURN STATION")
	assert.NotContains(t, out, "Line 5")
	assert.Contains(t, out, "85.5")
	assert.Contains(t, out, "6.15")
	assert.Contains(t, out, "ΔT (efficiency): 28.0°C optimal")

	first := strings.Index(out, "Supply from station temperature")
	last := strings.Index(out, "Return to station pressure")
	assert.True(t, first >= 0 && last > first)
}

func TestRenderSnapshotReverting(t *testing.T) {
	sensors := simulation.DefaultRevertingSensors()
	m, err := simulation.NewMeanReverting(sensors, simulation.WithoutNoise(), simulation.WithoutTrend())
	require.NoError(t, err)

	out := RenderSnapshot(sensors, m.Advance())
	assert.Contains(t, out, "Line 1 - TEMPERATURE")
	assert.Contains(t, out, "Line 2 - PRESSURE")
	assert.NotContains(t, out, "ΔT")
	assert.NotContains(t, out, "Outdoor")
	assert.Contains(t, out, "normal")
}

func TestRenderSnapshotFlagsDeltaT(t *testing.T) {
	snap := cascadeSnapshot(t)
	snap.Derived[simulation.DerivedDeltaT] = 41.2
	assert.Contains(t, RenderSnapshot(simulation.DefaultCascadeSensors(), snap), "41.2°C outside optimal range")
}

func TestRenderStatistics(t *testing.T) {
	out := RenderStatistics(transmission.Statistics{Success: 9, Failed: 1, Total: 10, SuccessRate: 90})
	assert.Contains(t, out, "Succeeded:        9")
	assert.Contains(t, out, "Failed:           1")
	assert.Contains(t, out, "Total:           10")
	assert.Contains(t, out, "Success rate:  90.0%")
}

func TestReporter(t *testing.T) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	r := New(&out, logger, simulation.DefaultCascadeSensors())

	r.Start(Banner{Device: "SUBSTATION_01", Location: "UB", Target: "http://collector/check", Interval: 3 * time.Second, Model: simulation.ModelCascade, Sensors: 8})
	r.Snapshot(cascadeSnapshot(t))
	r.Stop(transmission.Statistics{Success: 1, Total: 1, SuccessRate: 100})

	assert.Contains(t, out.String(), "Device:   SUBSTATION_01")
	assert.Contains(t, out.String(), "Flow:")
	assert.Contains(t, out.String(), "Simulator stopped")
	assert.Contains(t, logs.String(), "delta_t=28")
	assert.Contains(t, logs.String(), "optimal=true")
	assert.Contains(t, logs.String(), "success_rate=100")

	New(io.Discard, logger, nil).Statistics(transmission.Statistics{})
}
