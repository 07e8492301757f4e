package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/unklstewy/planefence/pkg/coordinates"
	"github.com/unklstewy/planefence/pkg/logger"
	"github.com/unklstewy/planefence/pkg/tracklink"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application configuration.
// It is loaded from a JSON or TOML file and then overridden by flags.
type Config struct {
	Fence    FenceConfig    `json:"fence" toml:"fence"`
	Observer ObserverConfig `json:"observer" toml:"observer"`
	Tracking TrackingConfig `json:"tracking" toml:"tracking"`
	Input    InputConfig    `json:"input" toml:"input"`
	Output   OutputConfig   `json:"output" toml:"output"`
	Database DatabaseConfig `json:"database" toml:"database"`
	SQLite   SQLiteConfig   `json:"sqlite" toml:"sqlite"`
	NATS     NATSConfig     `json:"nats" toml:"nats"`
	Log      LogConfig      `json:"log" toml:"log"`
}

// FenceConfig holds the range criteria a sighting must meet.
type FenceConfig struct {
	// MaxDistance is the largest distance from the receiver that counts as in range
	MaxDistance float64 `json:"max_distance" toml:"max_distance"`

	// MaxAltitude is the highest corrected altitude in feet that counts as in range
	MaxAltitude float64 `json:"max_altitude" toml:"max_altitude"`

	// DistanceUnit labels MaxDistance and the logged distances (km, nm, mi, m)
	DistanceUnit string `json:"distance_unit" toml:"distance_unit"`

	// AltitudeCorrection is subtracted from every reported altitude,
	// e.g. the receiver's field elevation to get height above ground
	AltitudeCorrection int `json:"altitude_correction" toml:"altitude_correction"`

	// CalcDistance computes distance from each sighting's coordinates to the
	// observer instead of trusting the logged distance column
	CalcDistance bool `json:"calc_distance" toml:"calc_distance"`
}

// ObserverConfig contains the receiver's geographic location.
type ObserverConfig struct {
	Name      string  `json:"name" toml:"name"`
	Latitude  float64 `json:"latitude" toml:"latitude"`
	Longitude float64 `json:"longitude" toml:"longitude"`

	// TimeZone is the IANA zone the receiver logs in; "Local" means the host zone
	TimeZone string `json:"timezone" toml:"timezone"`
}

// TrackingConfig selects the link generator.
type TrackingConfig struct {
	// Service is "adsbexchange" or "flightaware"
	Service string `json:"service" toml:"service"`
}

// InputConfig names the receiver log to reduce.
type InputConfig struct {
	// LogFile is a CSV log, optionally .gz or .zst compressed; "-" reads stdin
	LogFile string `json:"log_file" toml:"log_file"`
}

// OutputConfig controls the CSV event file.
type OutputConfig struct {
	// File is the destination; empty, "-" or "/dev/stdout" write to stdout
	File string `json:"file" toml:"file"`

	// Header writes a column header row before the events
	Header bool `json:"header" toml:"header"`
}

// DatabaseConfig contains PostgreSQL connection settings for the event archive.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled" toml:"enabled"`
	Host     string `json:"host" toml:"host"`
	Port     int    `json:"port" toml:"port"`
	Database string `json:"database" toml:"database"`
	Username string `json:"username" toml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" toml:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" toml:"ssl_mode"`

	MaxOpenConns int `json:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns" toml:"max_idle_conns"`

	// ConnectRetries is how many times to try connecting before giving up
	ConnectRetries int `json:"connect_retries" toml:"connect_retries"`
}

// SQLiteConfig enables the local SQLite event archive when Path is set.
type SQLiteConfig struct {
	Path string `json:"path" toml:"path"`
}

// NATSConfig enables publishing events when URL is set.
type NATSConfig struct {
	URL     string `json:"url" toml:"url"`
	Subject string `json:"subject" toml:"subject"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" toml:"level"`

	// Format is console or json
	Format string `json:"format" toml:"format"`
}

// Load reads configuration from a JSON or TOML file, chosen by extension.
// If the file doesn't exist, returns a default configuration.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := decodeFile(path, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Save writes the configuration to a JSON or TOML file, chosen by extension.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.NewEncoder(f).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		return nil
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return nil
}

// DefaultConfig returns the stock planefence defaults:
// 2 mile radius around Belmont, MA town hall, no altitude ceiling to speak of.
func DefaultConfig() *Config {
	return &Config{
		Fence: FenceConfig{
			MaxDistance:        2,
			MaxAltitude:        99999,
			DistanceUnit:       string(coordinates.DefaultDistUnit),
			AltitudeCorrection: 0,
		},
		Observer: ObserverConfig{
			Name:      "Belmont, MA",
			Latitude:  42.3966,
			Longitude: -71.1773,
			TimeZone:  "Local",
		},
		Tracking: TrackingConfig{
			Service: string(tracklink.ADSBExchange),
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "planefence",
			Username:       "planefence",
			SSLMode:        "disable",
			MaxOpenConns:   4,
			MaxIdleConns:   2,
			ConnectRetries: 3,
		},
		NATS: NATSConfig{
			Subject: "planefence.events",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate reports every configuration problem at once. Each error wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if strings.TrimSpace(c.Input.LogFile) == "" {
		add("need a log file")
	}
	if _, err := tracklink.ParseService(c.Tracking.Service); err != nil {
		add("%v", err)
	}
	if _, err := coordinates.ParseDistanceUnit(c.Fence.DistanceUnit); err != nil {
		add("%v", err)
	}
	if c.Fence.AltitudeCorrection < 0 {
		add("altitude correction must be a non-negative integer, got %d", c.Fence.AltitudeCorrection)
	}
	if c.Fence.MaxDistance < 0 {
		add("max distance must not be negative, got %g", c.Fence.MaxDistance)
	}
	if !coordinates.ValidLatLon(c.Observer.Latitude, c.Observer.Longitude) {
		add("observer position %g,%g is out of range", c.Observer.Latitude, c.Observer.Longitude)
	}
	if _, err := tracklink.LoadLocation(c.Observer.TimeZone); err != nil {
		add("%v", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add("%v", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		add("log format must be console or json, got %q", c.Log.Format)
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Database == "" || c.Database.Username == "" {
			add("database host, name and username are required when the database is enabled")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			add("database port %d is out of range", c.Database.Port)
		}
	}
	if c.NATS.URL != "" && strings.TrimSpace(c.NATS.Subject) == "" {
		add("nats subject is required when a nats url is set")
	}

	return errors.Join(errs...)
}

// ObserverLocation converts the observer section for the coordinate helpers.
func (c *Config) ObserverLocation() coordinates.Observer {
	return coordinates.Observer{
		Location: coordinates.Geographic{
			Latitude:  c.Observer.Latitude,
			Longitude: c.Observer.Longitude,
		},
		Timezone: c.Observer.TimeZone,
	}
}

// applyEnvironmentOverrides keeps secrets and per-host paths out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if logFile := os.Getenv("PLANEFENCE_LOGFILE"); logFile != "" {
		c.Input.LogFile = logFile
	}
	if dbPassword := os.Getenv("PLANEFENCE_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if natsURL := os.Getenv("PLANEFENCE_NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}
	if level := os.Getenv("PLANEFENCE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}
