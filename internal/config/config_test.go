package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Universe.Plots != 10000 || cfg.Universe.MiningBodies != 20 || cfg.Universe.SeedBase != 50000 {
		t.Fatalf("universe defaults = %+v", cfg.Universe)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sarakt.yaml")
	body := `
universe:
  plots: 10
  mining_bodies: 1
  starting_actors: 5
engine:
  cycle_interval: 2s
server:
  port: 9090
logging:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Universe.Plots != 10 || cfg.Universe.StartingActors != 5 {
		t.Fatalf("universe = %+v", cfg.Universe)
	}
	if cfg.Universe.SeedBase != 50000 {
		t.Fatalf("unset field lost its default: %d", cfg.Universe.SeedBase)
	}
	if cfg.Engine.CycleInterval != 2*time.Second || cfg.Server.Port != 9090 || !cfg.Logging.JSON {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero plots", "universe:\n  plots: 0\n"},
		{"negative actors", "universe:\n  starting_actors: -1\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad yaml", "universe: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			os.WriteFile(path, []byte(tt.body), 0o644)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SARAKT_PLOTS":          "42",
		"SARAKT_SEED":           "7",
		"SARAKT_ADMIN_KEY":      "secret",
		"SARAKT_CYCLE_INTERVAL": "500ms",
		"SARAKT_CORS_ORIGINS":   "http://a, http://b",
		"SARAKT_LOG_JSON":       "true",
		"SARAKT_RATE_LIMIT_RPS": "2.5",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Universe.Plots != 42 || cfg.Universe.Seed != 7 || cfg.Server.AdminKey != "secret" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Engine.CycleInterval != 500*time.Millisecond || cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Fatalf("engine=%v rate=%v", cfg.Engine.CycleInterval, cfg.RateLimit.RequestsPerSecond)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b" || !cfg.Logging.JSON {
		t.Fatalf("origins=%v json=%v", cfg.Server.CORSOrigins, cfg.Logging.JSON)
	}
}

func TestApplyEnv_BadValues(t *testing.T) {
	env := map[string]string{"SARAKT_PLOTS": "many", "SARAKT_LOG_JSON": "maybe"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }
	cfg := Default()
	err := cfg.applyEnv(lookup)
	if err == nil || !strings.Contains(err.Error(), "SARAKT_PLOTS") || !strings.Contains(err.Error(), "SARAKT_LOG_JSON") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LoggingConfig{Level: "warn", JSON: true})
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("output = %q", out)
	}
	if ParseLevel("nonsense") != slog.LevelInfo || ParseLevel("DEBUG") != slog.LevelDebug {
		t.Fatal("ParseLevel")
	}
}
