// Package influxdb connects to the InfluxDB bucket used as a readings collector.
package influxdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	api "github.com/influxdata/influxdb-client-go/v2/api"
)

// ErrIncompleteConfig reports missing INFLUX_* settings.
var ErrIncompleteConfig = errors.New("missing InfluxDB configuration, ensure INFLUX_URL, INFLUX_TOKEN, INFLUX_ORG, and INFLUX_BUCKET are set")

// Config maps the connection details required to reach InfluxDB.
type Config struct {
	URL     string
	Token   string
	Org     string
	Bucket  string
	Timeout time.Duration
}

// FromEnv loads configuration values from environment variables.
// INFLUX_URL, INFLUX_TOKEN, INFLUX_ORG, and INFLUX_BUCKET are required.
// INFLUX_TIMEOUT is optional and defaults to 5s when not provided.
func FromEnv() (Config, error) {
	cfg := Config{
		URL:     os.Getenv("INFLUX_URL"),
		Token:   os.Getenv("INFLUX_TOKEN"),
		Org:     os.Getenv("INFLUX_ORG"),
		Bucket:  os.Getenv("INFLUX_BUCKET"),
		Timeout: 5 * time.Second,
	}
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return Config{}, ErrIncompleteConfig
	}
	if raw := os.Getenv("INFLUX_TIMEOUT"); raw != "" {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INFLUX_TIMEOUT: %w", err)
		}
		cfg.Timeout = dur
	}
	return cfg, nil
}

// Client wraps the InfluxDB client bound to one org and bucket.
type Client struct {
	cfg    Config
	client influxdb2.Client
}

// New establishes a new InfluxDB client based on the provided configuration.
// A ping is issued to ensure the connection is healthy before returning.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts := influxdb2.DefaultOptions()
	if cfg.Timeout >= time.Second {
		opts.SetHTTPRequestTimeout(uint(cfg.Timeout / time.Second))
	}
	c := &Client{cfg: cfg, client: influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)}

	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := c.Ping(pingCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping InfluxDB: %w", err)
	}
	return c, nil
}

// WriteAPI returns the blocking write API bound to the configured org and bucket.
func (c *Client) WriteAPI() api.WriteAPIBlocking {
	return c.client.WriteAPIBlocking(c.cfg.Org, c.cfg.Bucket)
}

// Config exposes the immutable client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Ping checks the InfluxDB availability using the wrapped client.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("influxdb ping failed")
	}
	return nil
}

// Close releases resources held by the underlying client.
func (c *Client) Close() {
	c.client.Close()
}
