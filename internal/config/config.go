// Package config loads daemon settings: built-in defaults, then an optional
// YAML file, then .env and SARAKT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SARAKT_"

type Config struct {
	Universe  Universe        `yaml:"universe"`
	Engine    EngineConfig    `yaml:"engine"`
	Database  DatabaseConfig  `yaml:"database"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Universe holds the parameters of initial content generation.
type Universe struct {
	Seed           int64 `yaml:"seed" json:"seed"` // 0 picks a random seed on first start
	Plots          int   `yaml:"plots" json:"plots"`
	MiningBodies   int   `yaml:"mining_bodies" json:"mining_bodies"`
	StartingActors int   `yaml:"starting_actors" json:"starting_actors"`
	SeedBase       int64 `yaml:"seed_base" json:"seed_base"`
}

type EngineConfig struct {
	CycleInterval time.Duration `yaml:"cycle_interval"`
	SaveEvery     int           `yaml:"save_every"` // cycles between auto-saves
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SnapshotConfig struct {
	Dir        string `yaml:"dir"`
	OnShutdown bool   `yaml:"on_shutdown"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	AdminKey     string        `yaml:"admin_key"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Universe: DefaultUniverse(),
		Engine: EngineConfig{
			CycleInterval: 10 * time.Second,
			SaveEvery:     10,
		},
		Database: DatabaseConfig{Path: "data/sarakt.db"},
		Snapshot: SnapshotConfig{Dir: "data/snapshots", OnShutdown: true},
		Server: ServerConfig{
			Port:         8080,
			CORSOrigins:  []string{"*"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultUniverse returns the stock universe: 10000 plots, 20 mining bodies,
// 100 starting actors.
func DefaultUniverse() Universe {
	return Universe{
		Seed:           12345,
		Plots:          10000,
		MiningBodies:   20,
		StartingActors: 100,
		SeedBase:       50000,
	}
}

// Load reads the YAML file at path (skipped when empty), applies .env and
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	int64v := func(key string, dst *int64) {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	int64v("SEED", &c.Universe.Seed)
	integer("PLOTS", &c.Universe.Plots)
	integer("MINING_BODIES", &c.Universe.MiningBodies)
	integer("STARTING_ACTORS", &c.Universe.StartingActors)
	int64v("SEED_BASE", &c.Universe.SeedBase)
	duration("CYCLE_INTERVAL", &c.Engine.CycleInterval)
	integer("SAVE_EVERY", &c.Engine.SaveEvery)
	str("DB_PATH", &c.Database.Path)
	str("SNAPSHOT_DIR", &c.Snapshot.Dir)
	boolean("SNAPSHOT_ON_SHUTDOWN", &c.Snapshot.OnShutdown)
	integer("PORT", &c.Server.Port)
	str("ADMIN_KEY", &c.Server.AdminKey)
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	boolean("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	if v, ok := lookup(envPrefix + "RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT_RPS: %w", envPrefix, err))
		} else {
			c.RateLimit.RequestsPerSecond = f
		}
	}
	integer("RATE_LIMIT_BURST", &c.RateLimit.Burst)
	str("LOG_LEVEL", &c.Logging.Level)
	boolean("LOG_JSON", &c.Logging.JSON)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks ranges that would otherwise surface as odd runtime behavior.
func (c Config) Validate() error {
	if err := c.Universe.Validate(); err != nil {
		return err
	}
	if c.Engine.CycleInterval <= 0 {
		return fmt.Errorf("engine.cycle_interval must be positive")
	}
	if c.Engine.SaveEvery < 0 {
		return fmt.Errorf("engine.save_every must be >= 0")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit needs positive requests_per_second and burst")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q unknown", c.Logging.Level)
	}
	return nil
}

// Validate checks the universe generation parameters.
func (u Universe) Validate() error {
	if u.Plots < 1 {
		return fmt.Errorf("universe.plots must be >= 1")
	}
	if u.MiningBodies < 0 {
		return fmt.Errorf("universe.mining_bodies must be >= 0")
	}
	if u.StartingActors < 0 {
		return fmt.Errorf("universe.starting_actors must be >= 0")
	}
	return nil
}
