package simulation

import (
	"fmt"
	"time"
)

type binding struct {
	sensor Sensor
	index  int
}

// CascadeModel simulates the closed supply/return loop: a smoothed source
// temperature propagated through a chain of lossy segments.
type CascadeModel struct {
	cfg     settings
	physics Physics
	chain   []Segment
	sensors []Sensor
	bound   []binding

	sourceMin, sourceMax float64
	supplyKey, returnKey string

	lastSource float64
}

// NewCascade validates the sensors against the loop topology. Every sensor must
// name a segment, and the root segment must carry a temperature sensor whose
// range bounds the source temperature.
func NewCascade(sensors []Sensor, opts ...Option) (*CascadeModel, error) {
	if err := ValidateSensors(sensors); err != nil {
		return nil, err
	}
	cfg := newSettings(opts)
	physics := DefaultPhysics()
	if cfg.physics != nil {
		physics = *cfg.physics
	}
	chain, err := physics.chain()
	if err != nil {
		return nil, err
	}

	m := &CascadeModel{
		cfg:        cfg,
		physics:    physics,
		chain:      chain,
		sensors:    append([]Sensor(nil), sensors...),
		lastSource: physics.StationBaseTemp,
	}

	position := make(map[string]int, len(chain))
	for i, seg := range chain {
		position[seg.ID] = i
	}
	taken := make(map[string]string)
	lastTemp := -1
	for _, s := range m.sensors {
		idx, ok := position[s.Segment]
		if !ok {
			return nil, fmt.Errorf("%w: sensor %q on unknown segment %q", ErrInvalidTopology, s.Key, s.Segment)
		}
		slot := s.Segment + "/" + string(s.Kind)
		if other, dup := taken[slot]; dup {
			return nil, fmt.Errorf("%w: sensors %q and %q both measure %s", ErrInvalidTopology, other, s.Key, slot)
		}
		taken[slot] = s.Key
		m.bound = append(m.bound, binding{sensor: s, index: idx})

		if s.Kind != KindTemperature {
			continue
		}
		if idx == 0 {
			m.supplyKey = s.Key
			m.sourceMin, m.sourceMax = s.Min, s.Max
		}
		if idx > lastTemp {
			lastTemp = idx
			m.returnKey = s.Key
		}
	}
	if m.supplyKey == "" {
		return nil, fmt.Errorf("%w: no temperature sensor on root segment %q", ErrInvalidTopology, chain[0].ID)
	}
	return m, nil
}

// Name implements Generator.
func (m *CascadeModel) Name() string { return ModelCascade }

// Sensors implements Generator.
func (m *CascadeModel) Sensors() []Sensor {
	return append([]Sensor(nil), m.sensors...)
}

// Ambient returns the outdoor temperature driver for t.
func (m *CascadeModel) Ambient(t time.Time) float64 {
	p := m.physics
	return p.OutdoorBase + p.OutdoorAmplitude*diurnal(t) + m.cfg.gauss(m.cfg.rng, p.OutdoorNoise)
}

// SourceTarget is the source temperature the loop drifts toward at the given
// ambient; colder weather asks for hotter supply.
func (m *CascadeModel) SourceTarget(ambient float64) float64 {
	return m.physics.StationBaseTemp - ambient*m.physics.OutdoorInfluence
}

// SourceTemperature returns the smoothed source temperature carried into the next tick.
func (m *CascadeModel) SourceTemperature() float64 {
	return m.lastSource
}

// Advance computes one tick of the loop. Downstream values subtract from the
// unclamped upstream value; clamping to each sensor's range happens last.
func (m *CascadeModel) Advance() Snapshot {
	tick, now := m.cfg.clock.Advance()
	p := m.physics
	rng := m.cfg.rng

	ambient := m.Ambient(now)
	alpha := p.Smoothing
	source := m.lastSource*(1-alpha) + m.SourceTarget(ambient)*alpha
	source += m.cfg.gauss(rng, p.TempNoise)
	source = clamp(source, m.sourceMin, m.sourceMax)
	m.lastSource = source

	temps := make([]float64, len(m.chain))
	pressures := make([]float64, len(m.chain))
	temps[0] = source
	pressures[0] = p.SupplyPressure + m.cfg.gauss(rng, p.PressureNoise)

	drawn := make(map[string][2]float64, len(p.Losses))
	for i := 1; i < len(m.chain); i++ {
		seg := m.chain[i]
		d, ok := drawn[seg.Loss]
		if !ok {
			loss := p.Losses[seg.Loss]
			d = [2]float64{
				loss.Temp.Mean + m.cfg.gauss(rng, loss.Temp.StdDev),
				loss.Pressure.Mean + m.cfg.gauss(rng, loss.Pressure.StdDev),
			}
			drawn[seg.Loss] = d
		}
		temps[i] = temps[i-1] - d[0]*seg.share()
		pressures[i] = pressures[i-1] - d[1]*seg.share()
	}

	snap := Snapshot{
		Tick:    tick,
		Time:    now,
		Model:   ModelCascade,
		Values:  make(map[string]float64, len(m.bound)),
		Order:   make([]string, 0, len(m.bound)),
		Derived: make(map[string]float64, 2),
	}
	for _, b := range m.bound {
		raw := pressures[b.index]
		if b.sensor.Kind == KindTemperature {
			raw = temps[b.index]
		}
		snap.Values[b.sensor.Key] = clamp(round2(raw), b.sensor.Min, b.sensor.Max)
		snap.Order = append(snap.Order, b.sensor.Key)
	}
	snap.Derived[DerivedOutdoorTemp] = round2(ambient)
	snap.Derived[DerivedDeltaT] = round2(snap.Values[m.supplyKey] - snap.Values[m.returnKey])
	return snap
}
