// Package config assembles process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Resanso/substation-simulator/internal/logging"
	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

// Collector kinds.
const (
	CollectorHTTP   = "http"
	CollectorKafka  = "kafka"
	CollectorMQTT   = "mqtt"
	CollectorInflux = "influx"
)

// Sensor id sources.
const (
	SourceNone  = "none"
	SourceHTTP  = "http"
	SourceMySQL = "mysql"
)

var (
	// ErrUnknownCollector is returned for an unsupported COLLECTOR value.
	ErrUnknownCollector = errors.New("unknown collector")
	// ErrUnknownSource is returned for an unsupported SENSOR_ID_SOURCE value.
	ErrUnknownSource = errors.New("unknown sensor id source")
)

// Config holds everything the process needs to start.
type Config struct {
	DeviceID string
	Location string

	Model       string
	Seed        uint64
	SensorsFile string
	Interval    time.Duration
	StatsEvery  int

	Collector    string
	ServerURL    string
	SendTimeout  time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	MQTTBroker   string
	MQTTTopic    string

	SensorIDSource      string
	SensorIDURL         string
	MeasurementObjectID int

	StatusAddr  string
	CORSOrigins []string

	LogFile  string
	LogLevel string
}

// FromEnv reads the configuration from environment variables, applying
// defaults for anything unset.
func FromEnv(logger *slog.Logger) (Config, error) {
	device := env("DEVICE_ID", "SUBSTATION_01")
	cfg := Config{
		DeviceID:    device,
		Location:    env("DEVICE_LOCATION", "Ulaanbaatar, Sukhbaatar district"),
		Model:       env("GENERATOR_MODEL", simulation.ModelCascade),
		SensorsFile: os.Getenv("SENSORS_FILE"),
		Interval:    simulation.IntervalFromEnv(logger),
		Collector:   env("COLLECTOR", CollectorHTTP),
		ServerURL:   env("SERVER_URL", "http://localhost:5000/check"),
		KafkaTopic:  env("KAFKA_TOPIC", "substation.readings"),
		MQTTBroker:  os.Getenv("MQTT_BROKER"),
		MQTTTopic:   env("MQTT_TOPIC", "substations/"+device+"/readings"),
		SensorIDURL: os.Getenv("SENSOR_ID_URL"),
		StatusAddr:  os.Getenv("STATUS_ADDR"),
		LogFile:     env("LOG_FILE", logging.DefaultFile),
		LogLevel:    env("LOG_LEVEL", "info"),
	}
	cfg.KafkaBrokers = list(os.Getenv("KAFKA_BROKERS"))
	cfg.CORSOrigins = list(os.Getenv("STATUS_CORS_ORIGINS"))

	cfg.SensorIDSource = os.Getenv("SENSOR_ID_SOURCE")
	if cfg.SensorIDSource == "" {
		cfg.SensorIDSource = SourceNone
		if cfg.SensorIDURL != "" {
			cfg.SensorIDSource = SourceHTTP
		}
	}

	var err error
	if cfg.Seed, err = parseUint("SIM_SEED", 0); err != nil {
		return Config{}, err
	}
	if cfg.StatsEvery, err = parseInt("STATS_EVERY", 10); err != nil {
		return Config{}, err
	}
	if cfg.MeasurementObjectID, err = parseInt("MEASUREMENT_OBJECT_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.SendTimeout, err = parseDuration("SEND_TIMEOUT", transmission.DefaultTimeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateGenerator checks only the settings that generating readings needs.
func (c Config) ValidateGenerator() error {
	switch c.Model {
	case simulation.ModelCascade, simulation.ModelReverting:
	default:
		return fmt.Errorf("%w: %q", simulation.ErrUnknownModel, c.Model)
	}
	if c.StatsEvery < 0 {
		return errors.New("STATS_EVERY must not be negative")
	}
	return nil
}

// Validate checks that the selected model, collector and id source are
// usable with the settings provided. Call it after any overrides.
func (c Config) Validate() error {
	if err := c.ValidateGenerator(); err != nil {
		return err
	}

	switch c.Collector {
	case CollectorHTTP:
		if c.ServerURL == "" {
			return errors.New("SERVER_URL is required for the http collector")
		}
	case CollectorKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka collector")
		}
	case CollectorMQTT:
		if c.MQTTBroker == "" {
			return errors.New("MQTT_BROKER is required for the mqtt collector")
		}
	case CollectorInflux:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollector, c.Collector)
	}

	switch c.SensorIDSource {
	case SourceNone, SourceMySQL:
	case SourceHTTP:
		if c.SensorIDURL == "" {
			return errors.New("SENSOR_ID_URL is required for the http sensor id source")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.SensorIDSource)
	}
	return nil
}

// Target describes where readings go, for the startup banner.
func (c Config) Target() string {
	switch c.Collector {
	case CollectorKafka:
		return "kafka " + strings.Join(c.KafkaBrokers, ",") + " topic " + c.KafkaTopic
	case CollectorMQTT:
		return "mqtt " + c.MQTTBroker + " topic " + c.MQTTTopic
	case CollectorInflux:
		return "influxdb"
	default:
		return c.ServerURL
	}
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseUint(key string, fallback uint64) (uint64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return dur, nil
}
