package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Hermes    HermesConfig     `yaml:"hermes"`
	Analyzers []AnalyzerConfig `yaml:"analyzers"`
	Scoring   ScoringConfig    `yaml:"scoring"`
	Logging   LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit"` // requests per minute per client
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	URL    string `yaml:"url"`
}

type HermesConfig struct {
	URL             string `yaml:"url"`
	StatsIntervalMs int    `yaml:"stats_interval_ms"`
}

// AnalyzerConfig points at a remote analyzer whose score set is used as the
// pipeline input of the same name.
type AnalyzerConfig struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// ScoringConfig carries ladders and pipelines on top of the built-in ones.
// An entry with the same name as a built-in replaces it.
type ScoringConfig struct {
	Ladders           map[string][]scoring.Threshold `yaml:"ladders"`
	Pipelines         []report.Pipeline              `yaml:"pipelines"`
	AnalyzerTimeoutMs int                            `yaml:"analyzer_timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Hermes.StatsIntervalMs) * time.Millisecond
}

func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Scoring.AnalyzerTimeoutMs) * time.Millisecond
}

// LogLevel maps the configured level name onto slog; unknown names mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Ladders returns the built-in ladders with the configured ones merged over them.
func (c *Config) Ladders() (map[string]*scoring.ThresholdTable, error) {
	out := scoring.DefaultLadders()
	for name, thresholds := range c.Scoring.Ladders {
		t, err := scoring.NewThresholdTable(thresholds...)
		if err != nil {
			return nil, fmt.Errorf("ladder %q: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Pipelines returns the built-in pipelines with the configured ones merged over
// them, built-ins first in their usual order.
func (c *Config) Pipelines() []report.Pipeline {
	custom := make(map[string]report.Pipeline, len(c.Scoring.Pipelines))
	for _, p := range c.Scoring.Pipelines {
		custom[p.Name] = p
	}

	var out []report.Pipeline
	for _, p := range report.DefaultPipelines() {
		if override, ok := custom[p.Name]; ok {
			p = override
			delete(custom, p.Name)
		}
		out = append(out, p)
	}
	for _, p := range c.Scoring.Pipelines {
		if _, ok := custom[p.Name]; ok {
			out = append(out, p)
			delete(custom, p.Name)
		}
	}
	return out
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Hermes: HermesConfig{
			URL:             "nats://localhost:4222",
			StatsIntervalMs: 60000,
		},
		Scoring: ScoringConfig{
			AnalyzerTimeoutMs: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	for i, a := range cfg.Analyzers {
		if a.Name == "" || a.URL == "" {
			return nil, fmt.Errorf("analyzer %d: name and url are required", i)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SCORECARD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("SCORECARD_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("SCORECARD_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("SCORECARD_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("SCORECARD_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SCORECARD_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SCORECARD_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("SCORECARD_STATS_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Hermes.StatsIntervalMs = n
		}
	}
	if v := os.Getenv("SCORECARD_ANALYZER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.AnalyzerTimeoutMs = n
		}
	}
	if v := os.Getenv("SCORECARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
