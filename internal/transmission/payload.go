// Package transmission ships readings snapshots to the remote collector and
// keeps delivery statistics.
package transmission

import (
	"github.com/Resanso/substation-simulator/internal/simulation"
)

// Reading is one sensor entry of a payload.
type Reading struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Payload is the document delivered to the collector for one tick.
type Payload struct {
	Device    string    `json:"device"`
	Location  string    `json:"location"`
	Timestamp int64     `json:"ts"`
	Seconds   int64     `json:"ts_sec"`
	Synced    bool      `json:"synced"`
	Readings  []Reading `json:"readings"`
}

// Identity names the device the readings belong to.
type Identity struct {
	Device   string
	Location string
}

// NewPayload lays out snap in its sensor order. Keys without a sensor
// definition are skipped.
func NewPayload(id Identity, sensors []simulation.Sensor, snap simulation.Snapshot) Payload {
	byKey := make(map[string]simulation.Sensor, len(sensors))
	for _, s := range sensors {
		byKey[s.Key] = s
	}

	p := Payload{
		Device:    id.Device,
		Location:  id.Location,
		Timestamp: snap.Time.UnixMilli(),
		Seconds:   snap.Time.Unix(),
		Synced:    true,
		Readings:  make([]Reading, 0, len(snap.Order)),
	}
	for _, key := range snap.Order {
		s, ok := byKey[key]
		if !ok {
			continue
		}
		p.Readings = append(p.Readings, Reading{
			ID:    s.ServerID,
			Name:  key,
			Value: snap.Values[key],
			Unit:  s.Unit,
		})
	}
	return p
}
