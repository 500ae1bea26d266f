// Package mysql opens the collector database used to look up sensor ids.
package mysql

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
)

// Config maps connection settings for the MySQL instance.
type Config struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	TLSCAPath       string
	TLSConfigName   string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// FromEnv constructs Config from MYSQL_* environment variables. MYSQL_DSN
// accepts either a driver DSN or a mysql:// URL.
func FromEnv() (Config, error) {
	cfg := Config{
		DSN:           strings.TrimSpace(os.Getenv("MYSQL_DSN")),
		Host:          os.Getenv("MYSQL_HOST"),
		Port:          defaultString(os.Getenv("MYSQL_PORT"), "3306"),
		User:          os.Getenv("MYSQL_USER"),
		Password:      os.Getenv("MYSQL_PASSWORD"),
		Database:      os.Getenv("MYSQL_DATABASE"),
		TLSCAPath:     os.Getenv("MYSQL_TLS_CA"),
		TLSConfigName: defaultString(os.Getenv("MYSQL_TLS_CONFIG"), "collector"),
	}

	var err error
	if cfg.MaxOpenConns, err = parseInt("MYSQL_MAX_OPEN_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.ConnMaxLifetime, err = parseDuration("MYSQL_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PingTimeout, err = parseDuration("MYSQL_PING_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	if strings.HasPrefix(strings.ToLower(cfg.DSN), "mysql://") {
		if err := cfg.applyURL(cfg.DSN); err != nil {
			return Config{}, fmt.Errorf("parse MYSQL_DSN: %w", err)
		}
		cfg.DSN = ""
	}
	if cfg.DSN == "" && (cfg.Host == "" || cfg.User == "" || cfg.Database == "") {
		return Config{}, errors.New("incomplete MySQL configuration: provide MYSQL_DSN or MYSQL_HOST, MYSQL_USER, MYSQL_DATABASE")
	}
	return cfg, nil
}

// New opens a small pooled connection and validates connectivity.
func New(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := cfg.FormatDSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// FormatDSN renders the driver DSN, registering the CA bundle when one is configured.
func (cfg Config) FormatDSN() (string, error) {
	var dc *sqldriver.Config
	if cfg.DSN != "" {
		parsed, err := sqldriver.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("parse MYSQL_DSN: %w", err)
		}
		dc = parsed
	} else {
		dc = sqldriver.NewConfig()
		dc.Net = "tcp"
		dc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		dc.User = cfg.User
		dc.Passwd = cfg.Password
		dc.DBName = cfg.Database
	}
	dc.ParseTime = true
	dc.Loc = time.UTC

	if cfg.TLSCAPath != "" {
		if err := registerTLSConfig(cfg.TLSConfigName, cfg.TLSCAPath); err != nil {
			return "", fmt.Errorf("register TLS config: %w", err)
		}
		dc.TLSConfig = cfg.TLSConfigName
	}
	return dc.FormatDSN(), nil
}

func registerTLSConfig(name, caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		return errors.New("failed to append CA certificate")
	}
	return sqldriver.RegisterTLSConfig(name, &tls.Config{RootCAs: pool})
}

func (cfg *Config) applyURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.User != nil {
		cfg.User = parsed.User.Username()
		if password, ok := parsed.User.Password(); ok {
			cfg.Password = password
		}
	}
	if host := parsed.Hostname(); host != "" {
		cfg.Host = host
	}
	if port := parsed.Port(); port != "" {
		cfg.Port = port
	}
	if db := strings.TrimPrefix(parsed.Path, "/"); db != "" {
		cfg.Database = db
	}
	return nil
}

func defaultString(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

func parseInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return dur, nil
}

// FetchRows executes the provided query and returns the result set as a slice of column maps.
func FetchRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	if db == nil {
		return nil, errors.New("mysql fetch: nil db handle")
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
