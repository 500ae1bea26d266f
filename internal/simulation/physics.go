package simulation

import (
	"errors"
	"fmt"
)

// ErrInvalidTopology reports a segment chain or physics block that cannot be simulated.
var ErrInvalidTopology = errors.New("invalid cascade topology")

// Dist is a Gaussian loss distribution.
type Dist struct {
	Mean   float64 `yaml:"mean" json:"mean"`
	StdDev float64 `yaml:"stddev" json:"stddev"`
}

// Loss pairs the temperature and pressure loss of one element of the loop.
type Loss struct {
	Temp     Dist `yaml:"temp" json:"temp"`
	Pressure Dist `yaml:"pressure" json:"pressure"`
}

// Segment is one stage of the loop. A segment's values are its upstream's
// values minus Fraction of the loss drawn for Loss this tick; segments naming
// the same loss share one draw. The root segment has no upstream.
type Segment struct {
	ID       string  `yaml:"id" json:"id"`
	Upstream string  `yaml:"upstream" json:"upstream,omitempty"`
	Loss     string  `yaml:"loss" json:"loss,omitempty"`
	Fraction float64 `yaml:"fraction" json:"fraction,omitempty"`
}

func (s Segment) share() float64 {
	if s.Fraction == 0 {
		return 1
	}
	return s.Fraction
}

// Physics holds the cascade constants and loop topology.
type Physics struct {
	StationBaseTemp  float64         `yaml:"station_base_temp"`
	OutdoorInfluence float64         `yaml:"outdoor_influence"`
	SupplyPressure   float64         `yaml:"supply_pressure"`
	PressureNoise    float64         `yaml:"pressure_noise"`
	TempNoise        float64         `yaml:"temp_noise"`
	Smoothing        float64         `yaml:"smoothing"`
	OutdoorBase      float64         `yaml:"outdoor_base"`
	OutdoorAmplitude float64         `yaml:"outdoor_amplitude"`
	OutdoorNoise     float64         `yaml:"outdoor_noise"`
	Losses           map[string]Loss `yaml:"losses"`
	Segments         []Segment       `yaml:"segments"`
}

// chain resolves Segments into flow order starting at the root, rejecting
// branches, cycles, detached segments and unknown losses.
func (p Physics) chain() ([]Segment, error) {
	if p.Smoothing <= 0 || p.Smoothing > 1 {
		return nil, fmt.Errorf("%w: smoothing %.3f outside (0, 1]", ErrInvalidTopology, p.Smoothing)
	}
	if len(p.Segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrInvalidTopology)
	}

	var root *Segment
	byID := make(map[string]bool, len(p.Segments))
	next := make(map[string]Segment, len(p.Segments))
	for i := range p.Segments {
		seg := p.Segments[i]
		if seg.ID == "" {
			return nil, fmt.Errorf("%w: segment %d has no id", ErrInvalidTopology, i)
		}
		if byID[seg.ID] {
			return nil, fmt.Errorf("%w: duplicate segment %q", ErrInvalidTopology, seg.ID)
		}
		byID[seg.ID] = true
		if seg.Fraction < 0 || seg.Fraction > 1 {
			return nil, fmt.Errorf("%w: segment %q fraction %.2f outside [0, 1]", ErrInvalidTopology, seg.ID, seg.Fraction)
		}

		if seg.Upstream == "" {
			if root != nil {
				return nil, fmt.Errorf("%w: segments %q and %q both lack an upstream", ErrInvalidTopology, root.ID, seg.ID)
			}
			root = &p.Segments[i]
			continue
		}
		if _, ok := p.Losses[seg.Loss]; !ok {
			return nil, fmt.Errorf("%w: segment %q references unknown loss %q", ErrInvalidTopology, seg.ID, seg.Loss)
		}
		if other, ok := next[seg.Upstream]; ok {
			return nil, fmt.Errorf("%w: %q branches into %q and %q", ErrInvalidTopology, seg.Upstream, other.ID, seg.ID)
		}
		next[seg.Upstream] = seg
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root segment", ErrInvalidTopology)
	}

	ordered := []Segment{*root}
	for cur := root.ID; ; {
		seg, ok := next[cur]
		if !ok {
			break
		}
		ordered = append(ordered, seg)
		cur = seg.ID
	}
	// Segments on a cycle never connect back to the root.
	if len(ordered) != len(p.Segments) {
		return nil, fmt.Errorf("%w: %d segments not reachable from %q", ErrInvalidTopology, len(p.Segments)-len(ordered), root.ID)
	}
	return ordered, nil
}
