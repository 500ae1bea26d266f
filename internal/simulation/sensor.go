package simulation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSensor reports a sensor definition that cannot be simulated.
var ErrInvalidSensor = errors.New("invalid sensor definition")

// Kind names the physical quantity a sensor measures.
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindPressure    Kind = "pressure"
)

// Status is the health classification of a produced value.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
)

// Sensor describes one reported measurement point. Definitions are built once
// at startup and never mutated by the generators.
type Sensor struct {
	Key         string  `json:"key" yaml:"key"`
	ServerID    int     `json:"id" yaml:"server_id"`
	LocationID  int     `json:"locationId" yaml:"location_id"`
	Name        string  `json:"name" yaml:"name"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Unit        string  `json:"unit" yaml:"unit"`
	Baseline    float64 `json:"baseline" yaml:"baseline"`
	Variance    float64 `json:"variance" yaml:"variance"`
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	TrendFactor float64 `json:"trendFactor" yaml:"trend_factor"`
	Segment     string  `json:"segment,omitempty" yaml:"segment"`
}

// Validate checks the definition for values no generator can honour.
func (s Sensor) Validate() error {
	switch {
	case s.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidSensor)
	case s.Kind != KindTemperature && s.Kind != KindPressure:
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidSensor, s.Key, s.Kind)
	case !isFinite(s.Min) || !isFinite(s.Max) || !isFinite(s.Baseline):
		return fmt.Errorf("%w: %s: non-finite bounds", ErrInvalidSensor, s.Key)
	case s.Min > s.Max:
		return fmt.Errorf("%w: %s: min %.2f above max %.2f", ErrInvalidSensor, s.Key, s.Min, s.Max)
	case s.Baseline < s.Min || s.Baseline > s.Max:
		return fmt.Errorf("%w: %s: baseline %.2f outside [%.2f, %.2f]", ErrInvalidSensor, s.Key, s.Baseline, s.Min, s.Max)
	case s.Variance < 0:
		return fmt.Errorf("%w: %s: negative variance", ErrInvalidSensor, s.Key)
	}
	return nil
}

// Classify reports whether v lies inside the sensor's declared range.
func (s Sensor) Classify(v float64) Status {
	if !isFinite(v) || v < s.Min || v > s.Max {
		return StatusWarning
	}
	return StatusNormal
}

// ValidateSensors validates every definition and rejects duplicate keys.
func ValidateSensors(sensors []Sensor) error {
	if len(sensors) == 0 {
		return fmt.Errorf("%w: no sensors configured", ErrInvalidSensor)
	}
	seen := make(map[string]struct{}, len(sensors))
	for _, s := range sensors {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidSensor, s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return nil
}

// ClassifySnapshot maps every sensor in snap to its health status.
func ClassifySnapshot(sensors []Sensor, snap Snapshot) map[string]Status {
	out := make(map[string]Status, len(sensors))
	for _, s := range sensors {
		v, ok := snap.Values[s.Key]
		if !ok {
			out[s.Key] = StatusWarning
			continue
		}
		out[s.Key] = s.Classify(v)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
