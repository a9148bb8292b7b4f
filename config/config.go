// Package config loads the timesheet service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/timesheet-engine/timesheet"
)

// Config is the root configuration. Every field is optional; Load fills
// zero values with the defaults below.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path is the SQLite file. ":memory:" keeps everything in process.
	Path string `yaml:"path"`
}

type EngineConfig struct {
	DefaultLocation     string `yaml:"default_location"`
	DefaultStart        string `yaml:"default_start"`
	MaxConcurrentWrites int    `yaml:"max_concurrent_writes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

const (
	DefaultPort   = 8080
	DefaultDBPath = "timesheet.db"
)

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Database: DatabaseConfig{Path: DefaultDBPath},
		Engine: EngineConfig{
			DefaultLocation:     timesheet.DefaultLocation,
			DefaultStart:        timesheet.DefaultStartTime,
			MaxConcurrentWrites: timesheet.DefaultMaxConcurrentWrites,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path. An empty path returns the defaults.
// Fields missing from the file keep their default value.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Engine.DefaultLocation == "" {
		c.Engine.DefaultLocation = d.Engine.DefaultLocation
	}
	if c.Engine.DefaultStart == "" {
		c.Engine.DefaultStart = d.Engine.DefaultStart
	}
	if c.Engine.MaxConcurrentWrites == 0 {
		c.Engine.MaxConcurrentWrites = d.Engine.MaxConcurrentWrites
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := timesheet.ParseClock(c.Engine.DefaultStart); err != nil {
		errs = append(errs, fmt.Errorf("engine.default_start: %w", err))
	}
	if c.Engine.MaxConcurrentWrites < 1 {
		errs = append(errs, fmt.Errorf("engine.max_concurrent_writes must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// EngineOptions maps the engine section onto session options.
func (c Config) EngineOptions() timesheet.Options {
	return timesheet.Options{
		DefaultLocation:     c.Engine.DefaultLocation,
		DefaultStartTime:    c.Engine.DefaultStart,
		MaxConcurrentWrites: c.Engine.MaxConcurrentWrites,
	}
}
