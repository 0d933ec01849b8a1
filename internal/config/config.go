// Package config provides functionality for managing configuration options
// for the server using command-line flags, a JSON or YAML config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// MetricsAddr is where /metrics is served. Empty disables it.
	MetricsAddr string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// LogLevel is a zap level name.
	LogLevel string

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string

	// Simulated backend latencies.
	AuthDelay     time.Duration
	CheckoutDelay time.Duration
	TrackingDelay time.Duration

	// SessionTTL is how long an idle session's state is kept.
	SessionTTL time.Duration
	// CleanupInterval is how often idle sessions are looked for.
	CleanupInterval time.Duration

	// RateLimit is the number of sign-in and checkout requests a session may
	// make per minute.
	RateLimit int
}

// TLS reports whether HTTPS is configured.
func (o *Options) TLS() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// fileOptions is the layout of the config file. Durations are strings such
// as "3s"; zero values leave the flag value in place.
type fileOptions struct {
	ServerAddress   string `json:"server_address" yaml:"server_address"`
	MetricsAddress  string `json:"metrics_address" yaml:"metrics_address"`
	DatabaseDSN     string `json:"database_dsn" yaml:"database_dsn"`
	LogLevel        string `json:"log_level" yaml:"log_level"`
	TLSCert         string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey          string `json:"tls_key" yaml:"tls_key"`
	AuthDelay       string `json:"auth_delay" yaml:"auth_delay"`
	CheckoutDelay   string `json:"checkout_delay" yaml:"checkout_delay"`
	TrackingDelay   string `json:"tracking_delay" yaml:"tracking_delay"`
	SessionTTL      string `json:"session_ttl" yaml:"session_ttl"`
	CleanupInterval string `json:"cleanup_interval" yaml:"cleanup_interval"`
	RateLimit       int    `json:"rate_limit" yaml:"rate_limit"`
}

func newFlagSet(o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("storefront-server", flag.ContinueOnError)
	fs.StringVar(&o.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.MetricsAddr, "m", "localhost:9090", "serve metrics on ip:port (empty to disable)")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS key file")
	fs.DurationVar(&o.AuthDelay, "auth-delay", time.Second, "simulated sign-in latency")
	fs.DurationVar(&o.CheckoutDelay, "checkout-delay", 3*time.Second, "simulated payment latency")
	fs.DurationVar(&o.TrackingDelay, "tracking-delay", time.Second, "simulated tracking latency")
	fs.DurationVar(&o.SessionTTL, "session-ttl", 30*24*time.Hour, "drop sessions idle for longer")
	fs.DurationVar(&o.CleanupInterval, "cleanup-interval", time.Hour, "idle session sweep interval")
	fs.IntVar(&o.RateLimit, "rate-limit", 30, "sign-in and checkout requests per session per minute")
	return fs
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. It exits on invalid input.
func Parse() *Options {
	o, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return o
}

// ParseArgs builds Options from args. A config file, when present, overrides
// the flags; environment variables override both.
func ParseArgs(args []string) (*Options, error) {
	o := &Options{}
	if err := newFlagSet(o).Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := o.applyFile(o.Config, data); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		o.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		o.DatabaseDSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		o.LogLevel = level
	}

	return o, nil
}

func (o *Options) applyFile(path string, data []byte) error {
	var f fileOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
	}

	setString(&o.Port, f.ServerAddress)
	setString(&o.MetricsAddr, f.MetricsAddress)
	setString(&o.DatabaseDSN, f.DatabaseDSN)
	setString(&o.LogLevel, f.LogLevel)
	setString(&o.TLSCert, f.TLSCert)
	setString(&o.TLSKey, f.TLSKey)
	if f.RateLimit > 0 {
		o.RateLimit = f.RateLimit
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"auth_delay", f.AuthDelay, &o.AuthDelay},
		{"checkout_delay", f.CheckoutDelay, &o.CheckoutDelay},
		{"tracking_delay", f.TrackingDelay, &o.TrackingDelay},
		{"session_ttl", f.SessionTTL, &o.SessionTTL},
		{"cleanup_interval", f.CleanupInterval, &o.CleanupInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
