package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/config"
	"github.com/visualplan/schedule-engine/factory"
)

// app carries the global flags and what init derives from them.
type app struct {
	projectPath string
	configPath  string
	json        bool
	noColor     bool

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) init() error {
	if a.noColor {
		color.NoColor = true
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

// project loads the --project file and stamps the configured search horizon
// on calendars that do not set their own.
func (a *app) project() (*factory.Project, error) {
	if a.projectPath == "" {
		return nil, fmt.Errorf("--project is required")
	}
	p, err := factory.LoadProject(a.projectPath)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	for _, cal := range p.Calendars.List() {
		a.cfg.ApplyHorizon(cal)
		if err := p.Calendars.Put(cal); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("project loaded", "path", a.projectPath, "tasks", len(p.Tasks), "calendars", p.Calendars.Len())
	return p, nil
}

// global is the fallback calendar for tasks and resources with none.
func (a *app) global() *calendar.WorkingCalendar {
	cal := calendar.Standard("global", "Global default")
	a.cfg.ApplyHorizon(cal)
	return cal
}

func (a *app) resolver(p *factory.Project) *calendar.Resolver {
	return p.Resolver(a.global())
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
