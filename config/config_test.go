package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/config"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
	"github.com/visualplan/schedule-engine/scenario"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, calendar.DefaultSearchHorizon, cfg.Calendar.SearchHorizonDays)
	assert.Equal(t, resource.DefaultMaxIterations, cfg.Leveling.MaxIterations)
	assert.Equal(t, "max_duration", cfg.Scenario.CriticalPath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server, cfg.Server)
}

func TestLoad_FromFile(t *testing.T) {
	// GIVEN: A file overriding a few settings in several sections
	path := writeConfig(t, `
[server]
port = 9000
log_level = "debug"

[leveling]
strategy = "reduce_allocation"
max_iterations = 25

[rates.multipliers]
overtime = 1.75
"5" = 3.0

[scenario]
cost_per_day = 800
critical_path = "dependency"
`)

	// WHEN: It is loaded
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// THEN: File values win, the rest stay at defaults
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	opts := cfg.LevelOptions()
	assert.Equal(t, resource.StrategyReduceAllocation, opts.Strategy)
	assert.Equal(t, 25, opts.MaxIterations)

	resolver := cfg.RateResolver()
	assert.True(t, resolver.Multiplier(rate.TypeOvertime).Equal(decimal.NewFromFloat(1.75)))
	assert.True(t, resolver.Multiplier(rate.TypeHoliday).Equal(decimal.NewFromInt(3)))
	assert.True(t, resolver.Multiplier(rate.TypeWeekend).Equal(decimal.NewFromFloat(1.25)), "untouched default")

	sim := cfg.Simulator()
	assert.True(t, sim.CostPerDay.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, scenario.CriticalPathDependency, sim.CriticalPath)
	assert.Equal(t, 7, sim.Thresholds.CriticalDurationDays)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("SCHEDULE_PORT", "9100")
	t.Setenv("SCHEDULE_LOG_LEVEL", "warn")
	t.Setenv("SCHEDULE_SEARCH_HORIZON_DAYS", "400")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	assert.Equal(t, 400, cfg.Calendar.SearchHorizonDays)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[server\nport = 1"},
		{"port out of range", "[server]\nport = 70000"},
		{"unknown strategy", "[leveling]\nstrategy = \"shuffle\""},
		{"unknown rate type", "[rates.multipliers]\nbonus = 2.0"},
		{"unknown critical path", "[scenario]\ncritical_path = \"pert\""},
		{"zero horizon", "[calendar]\nsearch_horizon_days = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_FallsBackToInfo(t *testing.T) {
	cfg := config.Default()
	cfg.Server.LogLevel = "chatty"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	var nilCfg *config.Config
	assert.Equal(t, slog.LevelInfo, nilCfg.SlogLevel())
}

func TestApplyHorizon_KeepsExplicitValues(t *testing.T) {
	cfg := config.Default()
	cfg.Calendar.SearchHorizonDays = 90

	plain := calendar.Standard("std", "Standard")
	own := calendar.Standard("own", "Own")
	own.SearchHorizon = 10

	cfg.ApplyHorizon(plain, own, nil)

	assert.Equal(t, 90, plain.SearchHorizon)
	assert.Equal(t, 10, own.SearchHorizon)
}
