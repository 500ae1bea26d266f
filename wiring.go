package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Resanso/substation-simulator/internal/config"
	"github.com/Resanso/substation-simulator/internal/influxdb"
	"github.com/Resanso/substation-simulator/internal/mysql"
	"github.com/Resanso/substation-simulator/internal/registry"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

// newSink connects the collector selected by cfg.
func newSink(ctx context.Context, cfg config.Config) (transmission.Sink, error) {
	switch cfg.Collector {
	case config.CollectorKafka:
		return transmission.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.CollectorMQTT:
		clientID := cfg.DeviceID + "-" + uuid.NewString()[:8]
		return transmission.DialMQTT(cfg.MQTTBroker, clientID, cfg.MQTTTopic, cfg.SendTimeout)
	case config.CollectorInflux:
		icfg, err := influxdb.FromEnv()
		if err != nil {
			return nil, err
		}
		client, err := influxdb.New(ctx, icfg)
		if err != nil {
			return nil, err
		}
		return &influxSink{InfluxSink: transmission.NewInfluxSink(client.WriteAPI()), client: client}, nil
	case config.CollectorHTTP:
		return transmission.NewHTTPSink(cfg.ServerURL, &http.Client{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCollector, cfg.Collector)
	}
}

// influxSink closes the client it owns together with the sink.
type influxSink struct {
	*transmission.InfluxSink
	client *influxdb.Client
}

// Name tags send logs with the org and bucket being written.
func (s *influxSink) Name() string {
	c := s.client.Config()
	return "influx/" + c.Org + "/" + c.Bucket
}

func (s *influxSink) Close() error {
	s.client.Close()
	return nil
}

// newResolver picks the sensor id source. Connection failures are logged and
// leave ids unresolved rather than stopping the simulator.
func newResolver(ctx context.Context, cfg config.Config, logger *slog.Logger) (registry.Resolver, func()) {
	noop := func() {}
	switch cfg.SensorIDSource {
	case config.SourceHTTP:
		return registry.NewHTTPResolver(cfg.SensorIDURL, nil, cfg.SendTimeout), noop
	case config.SourceMySQL:
		mcfg, err := mysql.FromEnv()
		if err != nil {
			logger.Error("mysql sensor registry unavailable", "err", err)
			return nil, noop
		}
		db, err := mysql.New(ctx, mcfg)
		if err != nil {
			logger.Error("mysql sensor registry unavailable", "err", err)
			return nil, noop
		}
		return registry.NewMySQLResolver(db, cfg.MeasurementObjectID), func() { db.Close() }
	default:
		return nil, noop
	}
}
