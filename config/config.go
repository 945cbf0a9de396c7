package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
	"github.com/visualplan/schedule-engine/scenario"
)

// Config holds all engine configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Calendar CalendarConfig `toml:"calendar"`
	Leveling LevelingConfig `toml:"leveling"`
	Rates    RatesConfig    `toml:"rates"`
	Scenario ScenarioConfig `toml:"scenario"`
}

// ServerConfig holds HTTP and storage settings
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

// CalendarConfig bounds working-day searches
type CalendarConfig struct {
	SearchHorizonDays int `toml:"search_horizon_days"`
}

// LevelingConfig holds resource leveling defaults
type LevelingConfig struct {
	MaxIterations int    `toml:"max_iterations"`
	Strategy      string `toml:"strategy"`
	Priority      string `toml:"priority"`
}

// RatesConfig maps rate type names or codes to default multipliers
type RatesConfig struct {
	Multipliers map[string]float64 `toml:"multipliers"`
}

// ScenarioConfig holds simulator settings
type ScenarioConfig struct {
	CostPerDay           float64 `toml:"cost_per_day"`
	CriticalDurationDays int     `toml:"critical_duration_days"`
	CriticalCostDelta    float64 `toml:"critical_cost_delta"`
	CriticalRiskDelta    float64 `toml:"critical_risk_delta"`
	RiskWarning          float64 `toml:"risk_warning_threshold"`
	CriticalPath         string  `toml:"critical_path"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8080,
			DBPath:   "schedule.db",
			LogLevel: "info",
		},
		Calendar: CalendarConfig{
			SearchHorizonDays: calendar.DefaultSearchHorizon,
		},
		Leveling: LevelingConfig{
			MaxIterations: resource.DefaultMaxIterations,
			Strategy:      string(resource.StrategyDelayTasks),
			Priority:      string(resource.PriorityLatestStart),
		},
		Rates: RatesConfig{
			Multipliers: map[string]float64{},
		},
		Scenario: ScenarioConfig{
			CostPerDay:           1000,
			CriticalDurationDays: 7,
			CriticalCostDelta:    10000,
			CriticalRiskDelta:    10,
			RiskWarning:          60,
			CriticalPath:         string(scenario.CriticalPathMaxDuration),
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults,
// then overlays SCHEDULE_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(ExpandPath(path))
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Server.DBPath = ExpandPath(cfg.Server.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Env lists the variables ApplyEnv reads, all prefixed with SCHEDULE_.
// Unset variables leave the current value alone.
type Env struct {
	Host              string `envconfig:"HOST"`
	Port              int    `envconfig:"PORT"`
	DBPath            string `envconfig:"DB_PATH"`
	LogLevel          string `envconfig:"LOG_LEVEL"`
	SearchHorizonDays int    `envconfig:"SEARCH_HORIZON_DAYS"`
	MaxIterations     int    `envconfig:"LEVELING_MAX_ITERATIONS"`
	Strategy          string `envconfig:"LEVELING_STRATEGY"`
	CriticalPath      string `envconfig:"CRITICAL_PATH"`
}

const namespace = "SCHEDULE"

func (c *Config) ApplyEnv() error {
	env := Env{
		Host:              c.Server.Host,
		Port:              c.Server.Port,
		DBPath:            c.Server.DBPath,
		LogLevel:          c.Server.LogLevel,
		SearchHorizonDays: c.Calendar.SearchHorizonDays,
		MaxIterations:     c.Leveling.MaxIterations,
		Strategy:          c.Leveling.Strategy,
		CriticalPath:      c.Scenario.CriticalPath,
	}
	if err := envconfig.Process(namespace, &env); err != nil {
		return fmt.Errorf("failed to load env: %w", err)
	}
	c.Server.Host = env.Host
	c.Server.Port = env.Port
	c.Server.DBPath = env.DBPath
	c.Server.LogLevel = env.LogLevel
	c.Calendar.SearchHorizonDays = env.SearchHorizonDays
	c.Leveling.MaxIterations = env.MaxIterations
	c.Leveling.Strategy = env.Strategy
	c.Scenario.CriticalPath = env.CriticalPath
	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Calendar.SearchHorizonDays <= 0 {
		return fmt.Errorf("calendar.search_horizon_days must be positive")
	}
	if err := c.LevelOptions().Validate(); err != nil {
		return fmt.Errorf("leveling: %w", err)
	}
	if _, err := c.RateMultipliers(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}
	switch scenario.CriticalPathMode(c.Scenario.CriticalPath) {
	case scenario.CriticalPathMaxDuration, scenario.CriticalPathDependency:
	default:
		return fmt.Errorf("scenario.critical_path %q: want max_duration or dependency", c.Scenario.CriticalPath)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ===== Engine wiring =====

// ApplyHorizon sets the configured search horizon on calendars that do not
// carry their own.
func (c *Config) ApplyHorizon(cals ...*calendar.WorkingCalendar) {
	for _, cal := range cals {
		if cal != nil && cal.SearchHorizon <= 0 {
			cal.SearchHorizon = c.Calendar.SearchHorizonDays
		}
	}
}

func (c *Config) LevelOptions() resource.Options {
	return resource.Options{
		Mode:          resource.ModeAutomatic,
		Strategy:      resource.Strategy(c.Leveling.Strategy),
		Priority:      resource.Priority(c.Leveling.Priority),
		MaxIterations: c.Leveling.MaxIterations,
	}
}

// RateMultipliers parses the [rates.multipliers] table.
func (c *Config) RateMultipliers() (map[rate.Type]generic.Money, error) {
	out := make(map[rate.Type]generic.Money, len(c.Rates.Multipliers))
	for key, value := range c.Rates.Multipliers {
		t, err := rate.ParseType(key)
		if err != nil {
			return nil, err
		}
		if value < 0 {
			return nil, fmt.Errorf("multiplier for %s is negative", t)
		}
		out[t] = decimal.NewFromFloat(value)
	}
	return out, nil
}

func (c *Config) RateResolver() *rate.Resolver {
	overrides, err := c.RateMultipliers()
	if err != nil {
		overrides = nil
	}
	return rate.NewResolver(overrides)
}

func (c *Config) Simulator() *scenario.Simulator {
	sim := scenario.NewSimulator()
	if c.Scenario.CostPerDay > 0 {
		sim.CostPerDay = decimal.NewFromFloat(c.Scenario.CostPerDay)
	}
	sim.Thresholds = scenario.Thresholds{
		CriticalDurationDays: c.Scenario.CriticalDurationDays,
		CriticalCostDelta:    decimal.NewFromFloat(c.Scenario.CriticalCostDelta),
		CriticalRiskDelta:    c.Scenario.CriticalRiskDelta,
		RiskWarning:          c.Scenario.RiskWarning,
	}
	sim.CriticalPath = scenario.CriticalPathMode(c.Scenario.CriticalPath)
	return sim
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
