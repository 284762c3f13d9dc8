// Package config loads the RallyRank configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// RALLYRANK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"rallyrank/internal/elo"
	"rallyrank/internal/util"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "RALLYRANK_CONFIG"

const envPrefix = "RALLYRANK_"

type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	HTTP        HTTPConfig        `koanf:"http"`
	Rating      RatingConfig      `koanf:"rating"`
	Log         LogConfig         `koanf:"log"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
}

type DatabaseConfig struct {
	// Path to the SQLite database file.
	Path string `koanf:"path"`
}

type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the number of requests a single IP can make per
	// RateWindow, 0 disables the limit.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`
}

type RatingConfig struct {
	K       float64 `koanf:"k"`
	Default int     `koanf:"default"`
}

type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

type MaintenanceConfig struct {
	// Interval between two consistency checks of the stored ratings.
	Interval time.Duration `koanf:"interval"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "./rallyrank.db",
		},
		HTTP: HTTPConfig{
			Addr:         "127.0.0.1:3001",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  10 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit:    300,
			RateWindow:   time.Minute,
		},
		Rating: RatingConfig{
			K:       elo.DefaultK,
			Default: elo.DefaultRating,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Maintenance: MaintenanceConfig{
			Interval: 10 * time.Minute,
		},
	}
}

// Load reads the configuration from the file found by FindFile, if any,
// and the environment.
func Load() (*Config, error) {
	return LoadFile(FindFile())
}

// LoadFile reads the configuration from path, an empty path skips the file
// layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("unable to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("unable to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("unable to load environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// FindFile returns the first config file that exists, in order: the path
// in RALLYRANK_CONFIG, ./rallyrank.yaml, then rallyrank/config.yaml in the
// user config directory. It returns an empty string if none exists.
func FindFile() string {
	candidates := []string{os.Getenv(PathEnvVar), "rallyrank.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "rallyrank", "config.yaml"))
	}

	for _, v := range candidates {
		if v == "" {
			continue
		}

		if _, err := os.Stat(v); err == nil {
			return v
		}
	}

	return ""
}

// envVars maps the supported environment variables to their config key.
var envVars = map[string]string{ // nolint:gochecknoglobals
	"DATABASE_PATH":        "database.path",
	"HTTP_ADDR":            "http.addr",
	"HTTP_READ_TIMEOUT":    "http.read_timeout",
	"HTTP_WRITE_TIMEOUT":   "http.write_timeout",
	"HTTP_IDLE_TIMEOUT":    "http.idle_timeout",
	"HTTP_CORS_ORIGINS":    "http.cors_origins",
	"HTTP_RATE_LIMIT":      "http.rate_limit",
	"HTTP_RATE_WINDOW":     "http.rate_window",
	"RATING_K":             "rating.k",
	"RATING_DEFAULT":       "rating.default",
	"LOG_LEVEL":            "log.level",
	"LOG_FORMAT":           "log.format",
	"MAINTENANCE_INTERVAL": "maintenance.interval",
}

// envKey returns the config key for a RALLYRANK_ variable, or an empty
// string to ignore it.
func envKey(name string) string {
	return envVars[strings.TrimPrefix(name, envPrefix)]
}

// splitSlices turns comma separated environment values into slices.
func splitSlices(k *koanf.Koanf) error {
	for _, path := range []string{"http.cors_origins"} {
		str, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(str, ",")
		values := make([]string, 0, len(parts))
		for _, v := range parts {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}

		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("unable to set %s: %w", path, err)
		}
	}

	return nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path: required"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr: required"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit: must be positive or 0"))
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateWindow <= 0 {
		errs = append(errs, errors.New("http.rate_window: must be positive"))
	}
	if c.Rating.K <= 0 {
		errs = append(errs, errors.New("rating.k: must be positive"))
	}
	if c.Rating.Default <= 0 {
		errs = append(errs, errors.New("rating.default: must be positive"))
	}
	if c.Maintenance.Interval < time.Second {
		errs = append(errs, errors.New("maintenance.interval: must be at least 1s"))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	return util.ConcatErrors(errs)
}
