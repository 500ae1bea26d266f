// Package registry resolves the collector's sensor identifiers, keyed by the
// sensor's location id, before the simulation starts.
package registry

import (
	"context"
	"log/slog"

	"github.com/Resanso/substation-simulator/internal/simulation"
)

// Resolver looks up collector sensor ids keyed by location id.
type Resolver interface {
	Resolve(ctx context.Context) (map[int]int, error)
}

// Apply returns a copy of sensors with ServerID set wherever ids knows the
// sensor's location, and the number of sensors matched.
func Apply(sensors []simulation.Sensor, ids map[int]int) ([]simulation.Sensor, int) {
	out := append([]simulation.Sensor(nil), sensors...)
	matched := 0
	for i := range out {
		if id, ok := ids[out[i].LocationID]; ok {
			out[i].ServerID = id
			matched++
		}
	}
	return out, matched
}

// ResolveSensors runs r and applies its ids. A failed lookup is logged and
// the sensors are returned unchanged.
func ResolveSensors(ctx context.Context, r Resolver, sensors []simulation.Sensor, logger *slog.Logger) []simulation.Sensor {
	if r == nil {
		return sensors
	}
	ids, err := r.Resolve(ctx)
	if err != nil {
		logger.Error("sensor id lookup failed, keeping configured ids", "err", err)
		return sensors
	}
	resolved, matched := Apply(sensors, ids)
	logger.Info("sensor ids resolved", "matched", matched, "sensors", len(sensors))
	for _, s := range resolved {
		logger.Debug("sensor id", "key", s.Key, "id", s.ServerID, "location", s.LocationID)
	}
	return resolved
}
