package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resanso/substation-simulator/internal/simulation"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCmdWithEnv(t, nil, args...)
}

func runCmdWithEnv(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"GENERATOR_MODEL", "SIM_SEED", "SENSORS_FILE", "COLLECTOR", "KAFKA_BROKERS", "SENSOR_ID_SOURCE", "SENSOR_ID_URL", "SEND_INTERVAL"} {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeSnapshots(t *testing.T, out string) []simulation.Snapshot {
	t.Helper()
	var snaps []simulation.Snapshot
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	for sc.Scan() {
		var s simulation.Snapshot
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		snaps = append(snaps, s)
	}
	return snaps
}

func TestSnapshotCommand(t *testing.T) {
	out, err := runCmd(t, "snapshot", "--ticks", "3", "--model", "reverting", "--seed", "9")
	require.NoError(t, err)

	snaps := decodeSnapshots(t, out)
	require.Len(t, snaps, 3)
	for i, s := range snaps {
		assert.Equal(t, uint64(i+1), s.Tick)
		assert.Equal(t, simulation.ModelReverting, s.Model)
		assert.Len(t, s.Values, 6)
	}
}

func TestSnapshotCommandIsReproducible(t *testing.T) {
	first, err := runCmd(t, "snapshot", "--ticks", "2", "--seed", "77")
	require.NoError(t, err)
	second, err := runCmd(t, "snapshot", "--ticks", "2", "--seed", "77")
	require.NoError(t, err)

	a, b := decodeSnapshots(t, first), decodeSnapshots(t, second)
	require.Len(t, a, 2)
	for i := range a {
		assert.Equal(t, a[i].Values, b[i].Values)
		assert.Equal(t, a[i].Derived, b[i].Derived)
	}
}

func TestSnapshotCommandCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: reverting\nsensors:\n  - {key: boiler_temp, kind: temperature, unit: C, baseline: 60, variance: 2, min: 40, max: 80}\n"), 0o644))

	out, err := runCmd(t, "snapshot", "--sensors", path)
	require.NoError(t, err)
	snaps := decodeSnapshots(t, out)
	require.Len(t, snaps, 1)
	assert.Contains(t, snaps[0].Values, "boiler_temp")
}

func TestSnapshotCommandErrors(t *testing.T) {
	_, err := runCmd(t, "snapshot", "--ticks", "0")
	assert.Error(t, err)

	_, err = runCmd(t, "snapshot", "--model", "markov")
	assert.ErrorIs(t, err, simulation.ErrUnknownModel)
}

func TestSnapshotCommandFlagOverridesEnvModel(t *testing.T) {
	out, err := runCmdWithEnv(t, map[string]string{"GENERATOR_MODEL": "markov"}, "snapshot", "--model", "reverting")
	require.NoError(t, err)
	snaps := decodeSnapshots(t, out)
	require.Len(t, snaps, 1)
	assert.Equal(t, simulation.ModelReverting, snaps[0].Model)

	_, err = runCmdWithEnv(t, map[string]string{"GENERATOR_MODEL": "markov"}, "snapshot")
	assert.ErrorIs(t, err, simulation.ErrUnknownModel)
}

func TestSnapshotCommandIgnoresCollectorSettings(t *testing.T) {
	env := map[string]string{"COLLECTOR": "kafka", "SENSOR_ID_SOURCE": "http"}
	out, err := runCmdWithEnv(t, env, "snapshot", "--ticks", "2")
	require.NoError(t, err)
	assert.Len(t, decodeSnapshots(t, out), 2)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "substation-sim version "+version)
}
