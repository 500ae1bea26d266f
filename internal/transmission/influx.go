package transmission

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurementName = "substation_readings"

// InfluxSink writes one point per reading into the collector bucket.
type InfluxSink struct {
	writer api.WriteAPIBlocking
}

// NewInfluxSink wraps a blocking write API.
func NewInfluxSink(writer api.WriteAPIBlocking) *InfluxSink {
	return &InfluxSink{writer: writer}
}

// Name implements Sink.
func (s *InfluxSink) Name() string { return "influx" }

// Send implements Sink.
func (s *InfluxSink) Send(ctx context.Context, p Payload) error {
	ts := time.UnixMilli(p.Timestamp)
	points := make([]*write.Point, 0, len(p.Readings))
	for _, r := range p.Readings {
		points = append(points, influxdb2.NewPoint(
			measurementName,
			map[string]string{
				"device": p.Device,
				"sensor": r.Name,
				"unit":   r.Unit,
			},
			map[string]interface{}{
				"value": r.Value,
			},
			ts,
		))
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write readings: %w", err)
	}
	return nil
}

// Close implements Sink. The owning influxdb client is closed by its creator.
func (s *InfluxSink) Close() error { return nil }
