package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Model names accepted by NewGenerator.
const (
	ModelCascade   = "cascade"
	ModelReverting = "reverting"
)

// Keys of the derived values carried on cascade snapshots.
const (
	DerivedOutdoorTemp = "outdoor_temp"
	DerivedDeltaT      = "delta_t"
)

// ErrUnknownModel is returned for a model name no generator implements.
var ErrUnknownModel = errors.New("unknown generator model")

// Snapshot is the complete set of readings produced for one tick. A snapshot
// is built fresh every tick and is not modified after Advance returns it.
type Snapshot struct {
	Tick    uint64             `json:"tick"`
	Time    time.Time          `json:"time"`
	Model   string             `json:"model"`
	Values  map[string]float64 `json:"values"`
	Order   []string           `json:"order"`
	Derived map[string]float64 `json:"derived,omitempty"`
}

// Generator produces one consistent readings snapshot per call to Advance.
// Implementations are not safe for concurrent use.
type Generator interface {
	Name() string
	Sensors() []Sensor
	Advance() Snapshot
}

// NewGenerator builds the generator registered under model.
func NewGenerator(model string, sensors []Sensor, opts ...Option) (Generator, error) {
	var (
		g   Generator
		err error
	)
	switch model {
	case ModelCascade:
		g, err = NewCascade(sensors, opts...)
	case ModelReverting:
		g, err = NewMeanReverting(sensors, opts...)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DefaultSensors returns the built-in catalog for model.
func DefaultSensors(model string) ([]Sensor, error) {
	switch model {
	case ModelCascade:
		return DefaultCascadeSensors(), nil
	case ModelReverting:
		return DefaultRevertingSensors(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
}

type settings struct {
	rng      *rand.Rand
	clock    *Clock
	noise    bool
	trend    bool
	parallel bool
	initial  map[string]float64
	physics  *Physics
}

func newSettings(opts []Option) settings {
	s := settings{noise: true, trend: true}
	for _, opt := range opts {
		opt(&s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, 0))
	}
	if s.clock == nil {
		s.clock = NewClock(nil)
	}
	return s
}

// Option customizes generator creation.
type Option func(*settings)

// WithRand injects the random source driving every stochastic term.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSeed seeds a PCG source; zero keeps the time-based default.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		if seed != 0 {
			s.rng = rand.New(rand.NewPCG(seed, 0))
		}
	}
}

// WithClock overrides the simulation clock.
func WithClock(c *Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithoutNoise zeroes every Gaussian term so runs follow the mean path.
func WithoutNoise() Option {
	return func(s *settings) { s.noise = false }
}

// WithoutTrend disables the diurnal trend of the mean-reverting model.
func WithoutTrend() Option {
	return func(s *settings) { s.trend = false }
}

// WithParallel evaluates mean-reverting sensors concurrently within a tick.
func WithParallel() Option {
	return func(s *settings) { s.parallel = true }
}

// WithInitialValues seeds carried values by sensor key instead of baselines.
func WithInitialValues(values map[string]float64) Option {
	return func(s *settings) { s.initial = values }
}

// WithPhysics replaces the cascade physics constants and topology.
func WithPhysics(p Physics) Option {
	return func(s *settings) { s.physics = &p }
}

func (s settings) gauss(rng *rand.Rand, stddev float64) float64 {
	if !s.noise || stddev == 0 {
		return 0
	}
	return rng.NormFloat64() * stddev
}
