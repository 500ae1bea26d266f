package simulation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the static sensor and loop configuration loaded at startup.
type Catalog struct {
	Model   string   `yaml:"model"`
	Sensors []Sensor `yaml:"sensors"`
	Physics Physics  `yaml:"physics"`
}

// BuiltinCatalog returns the default sensors and physics for model.
func BuiltinCatalog(model string) (Catalog, error) {
	sensors, err := DefaultSensors(model)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Model: model, Sensors: sensors, Physics: DefaultPhysics()}, nil
}

// LoadCatalog reads a YAML catalog from path. model applies when the file
// does not name one.
func LoadCatalog(path, model string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read sensor catalog: %w", err)
	}
	cat, err := ParseCatalog(raw, model)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog decodes a YAML catalog. Physics keys left out keep their
// defaults, sensors left out fall back to the model's built-in set, and
// unknown keys are rejected.
func ParseCatalog(raw []byte, model string) (Catalog, error) {
	cat := Catalog{Model: model, Physics: DefaultPhysics()}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("decode sensor catalog: %w", err)
	}

	if cat.Model != ModelCascade && cat.Model != ModelReverting {
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownModel, cat.Model)
	}
	if len(cat.Sensors) == 0 {
		sensors, err := DefaultSensors(cat.Model)
		if err != nil {
			return Catalog{}, err
		}
		cat.Sensors = sensors
	}
	if err := ValidateSensors(cat.Sensors); err != nil {
		return Catalog{}, err
	}
	if cat.Model == ModelCascade {
		if _, err := cat.Physics.chain(); err != nil {
			return Catalog{}, err
		}
	}
	return cat, nil
}

// Options returns the generator options the catalog implies.
func (c Catalog) Options() []Option {
	if c.Model != ModelCascade {
		return nil
	}
	return []Option{WithPhysics(c.Physics)}
}
