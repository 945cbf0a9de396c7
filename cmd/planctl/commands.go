package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/factory"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
)

// =============================================================================
// CONSTRAINTS
// =============================================================================

func constraintEngine(a *app, p *factory.Project) (*constraint.Engine, error) {
	engine, err := constraint.NewEngine(p.Constraints...)
	if err != nil {
		return nil, err
	}
	return engine.WithResolver(a.resolver(p), p.CalendarID).WithLogger(a.logger), nil
}

func validateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "List constraint violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			engine, err := constraintEngine(a, p)
			if err != nil {
				return err
			}
			violations := engine.ValidateAll(p.Tasks, nil)

			out := cmd.OutOrStdout()
			if a.json {
				if err := outputJSON(out, violations); err != nil {
					return err
				}
			} else {
				printViolations(out, violations)
			}
			if strict && len(violations) > 0 {
				return fmt.Errorf("%d constraint violation(s)", len(violations))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any constraint is violated")
	return cmd
}

func applyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Auto-resolve violated constraints and print the moved tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			engine, err := constraintEngine(a, p)
			if err != nil {
				return err
			}
			result, err := engine.ApplyConstraints(p.Tasks, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, result)
			}

			before := generic.IndexTasks(p.Tasks)
			moved := 0
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, t := range result.Tasks {
				old := p.Tasks[before[t.ID]]
				if old.Start.Equal(t.Start) && old.End.Equal(t.End) {
					continue
				}
				moved++
				fmt.Fprintf(tw, "%s\t%s → %s\t%s → %s\t%d days\n",
					BoldCyan(t.ID), old.Start, Bold(t.Start), old.End, Bold(t.End), t.Duration)
			}
			tw.Flush()

			fmt.Fprintln(out, okLine(fmt.Sprintf("%d constraint(s) resolved, %d task(s) moved", len(result.Resolved), moved)))
			if len(result.Remaining) > 0 {
				fmt.Fprintln(out, warnLine(fmt.Sprintf("%d violation(s) need manual attention", len(result.Remaining))))
				printViolations(out, result.Remaining)
			}
			return nil
		},
	}
}

func printViolations(w io.Writer, violations []constraint.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(w, okLine("no constraint violations"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, Dim("TASK\tTYPE\tSCHEDULED\tCONSTRAINT\tDAYS\tSEVERITY\tFIX"))
	for _, v := range violations {
		fix := v.SuggestedFix
		if !v.CanAutoResolve {
			fix = Dim(fix)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+d\t%s\t%s\n",
			BoldCyan(v.TaskID), v.Kind, v.ScheduledDate, v.ConstraintDate, v.Days, violationSeverity(v.Severity), fix)
	}
	tw.Flush()
}

// =============================================================================
// RESOURCES
// =============================================================================

func conflictsCmd(a *app) *cobra.Command {
	var from, to string
	var workingDays bool

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Detect days where a resource is allocated beyond its capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			ledger := resource.NewLedger(p.Resources, p.Allocations, p.Availability).WithLogger(a.logger)
			if workingDays {
				ledger.WithCalendars(a.resolver(p), p.CalendarID)
			}

			window, hasWindow, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			if hasWindow {
				ledger.SetWindow(&window)
			} else if span, ok := resource.Span(p.Allocations); ok {
				window = span
			}

			conflicts := ledger.Conflicts()
			utilization := make(map[generic.ResourceID]float64, len(p.Resources))
			for _, r := range p.Resources {
				utilization[r.ID] = ledger.Utilization(r.ID, window)
			}

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, map[string]any{"conflicts": conflicts, "utilization": utilization})
			}
			printConflicts(out, conflicts)
			printUtilization(out, p.Resources, utilization)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&workingDays, "working-days", false, "Skip each resource's days off")
	return cmd
}

func levelCmd(a *app) *cobra.Command {
	var strategy, priority string
	var maxIterations int
	var manual, workingDays bool

	cmd := &cobra.Command{
		Use:   "level",
		Short: "Remove overallocation by delaying tasks or reducing allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}

			opts := a.cfg.LevelOptions()
			if strategy != "" {
				opts.Strategy = resource.Strategy(strategy)
			}
			if priority != "" {
				opts.Priority = resource.Priority(priority)
			}
			if maxIterations > 0 {
				opts.MaxIterations = maxIterations
			}
			if manual {
				opts.Mode = resource.ModeManual
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			if workingDays {
				opts.Calendars = resource.ResolverCalendars(a.resolver(p), p.CalendarID)
			}
			opts.Logger = a.logger

			result := resource.Level(p.Tasks, p.Allocations, p.Availability, p.Resources, opts)

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, result)
			}
			printLevelResult(out, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "delay_tasks or reduce_allocation (default from config)")
	cmd.Flags().StringVar(&priority, "priority", "", "latest_start, shortest or least_progress (default from config)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Iteration cap (default from config)")
	cmd.Flags().BoolVar(&manual, "manual", false, "Report conflicts without changing anything")
	cmd.Flags().BoolVar(&workingDays, "working-days", false, "Skip each resource's days off")
	return cmd
}

func printConflicts(w io.Writer, conflicts []resource.Conflict) {
	if len(conflicts) == 0 {
		fmt.Fprintln(w, okLine("no resource conflicts"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, Dim("RESOURCE\tDATE\tALLOCATED\tAVAILABLE\tOVER\tSEVERITY\tTASKS"))
	for _, c := range conflicts {
		ids := make([]string, len(c.TaskIDs))
		for i, id := range c.TaskIDs {
			ids[i] = string(id)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			BoldCyan(c.ResourceID), c.Date, formatUnits(c.Allocated), formatUnits(c.Available),
			Red(formatUnits(c.Overallocation)), conflictSeverity(c.Severity), strings.Join(ids, ","))
	}
	tw.Flush()
	fmt.Fprintln(w, warnLine(fmt.Sprintf("%d conflict(s)", len(conflicts))))
}

func printUtilization(w io.Writer, resources []resource.Resource, utilization map[generic.ResourceID]float64) {
	ids := make([]string, 0, len(utilization))
	for id := range utilization {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return
	}
	names := make(map[generic.ResourceID]string, len(resources))
	for _, r := range resources {
		names[r.ID] = r.Name
	}
	fmt.Fprintln(w, Bold("Utilization"))
	for _, id := range ids {
		rid := generic.ResourceID(id)
		fmt.Fprintf(w, "  %s %s %s%%\n", BoldCyan(id), Dim(names[rid]), formatUnits(utilization[rid]))
	}
}

func printLevelResult(w io.Writer, r resource.LevelResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, act := range r.Actions {
		switch act.Strategy {
		case resource.StrategyReduceAllocation:
			fmt.Fprintf(tw, "#%d\t%s\t%s\treduce %s by %s\n", act.Iteration, act.Date, BoldCyan(act.ResourceID), act.TaskID, formatUnits(act.Reduction))
		default:
			fmt.Fprintf(tw, "#%d\t%s\t%s\tdelay %s by %d day(s)\n", act.Iteration, act.Date, BoldCyan(act.ResourceID), act.TaskID, act.ShiftDays)
		}
	}
	tw.Flush()

	summary := fmt.Sprintf("%d → %d conflict(s) after %d iteration(s)", r.InitialConflicts, len(r.Conflicts), r.Iterations)
	if r.Converged {
		fmt.Fprintln(w, okLine(summary))
		return
	}
	fmt.Fprintln(w, warnLine(summary))
	printConflicts(w, r.Conflicts)
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// COSTS & METRICS
// =============================================================================

func costCmd(a *app) *cobra.Command {
	var typeName, weekendType string
	var skipWeekends bool

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Price every allocation against the project's rate records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			t, err := rate.ParseType(typeName)
			if err != nil {
				return err
			}
			var wt rate.Type
			if weekendType != "" {
				if wt, err = rate.ParseType(weekendType); err != nil {
					return err
				}
			}

			summary := a.cfg.RateResolver().MultiRateCost(assignmentsFor(p, t, wt, skipWeekends), p.Rates)

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, summary)
			}
			printCosts(out, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "standard", "Rate type billed on every day")
	cmd.Flags().StringVar(&weekendType, "weekend-type", "", "Rate type billed on weekend days")
	cmd.Flags().BoolVar(&skipWeekends, "skip-weekends", false, "Do not bill weekend days")
	return cmd
}

// assignmentsFor bills each allocation over its own span. An allocation's
// unit cost replaces the project default rate as fallback.
func assignmentsFor(p *factory.Project, t, weekend rate.Type, skipWeekends bool) []rate.Assignment {
	out := make([]rate.Assignment, 0, len(p.Allocations))
	for _, alloc := range p.Allocations {
		fallback := p.DefaultRate
		if alloc.UnitCost != nil {
			fallback = *alloc.UnitCost
		}
		out = append(out, rate.Assignment{
			ResourceID:   alloc.ResourceID,
			TaskID:       alloc.TaskID,
			Type:         t,
			Period:       alloc.Period(),
			Units:        alloc.Units,
			DefaultRate:  fallback,
			SkipWeekends: skipWeekends,
			WeekendType:  weekend,
		})
	}
	return out
}

func printCosts(w io.Writer, s rate.MultiRateSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, Dim("RESOURCE\tTASK\tDAYS\tPER USE\tTOTAL"))
	for _, b := range s.Assignments {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", BoldCyan(b.ResourceID), b.TaskID, len(b.Days), b.PerUseCost.StringFixed(2), b.Total.StringFixed(2))
	}
	tw.Flush()

	if len(s.ByRate) > 0 {
		fmt.Fprintln(w, Bold("By rate"))
		for _, bucket := range s.ByRate {
			fmt.Fprintf(w, "  %s × %d day(s) = %s\n", bucket.Rate.StringFixed(2), bucket.Days, bucket.Cost.StringFixed(2))
		}
	}
	fmt.Fprintf(w, "%s %s\n", Bold("Total"), BoldGreen(s.Total.StringFixed(2)))
}

func metricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Duration, cost, critical path and risk of the project as planned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			m := a.cfg.Simulator().CalculateMetrics(p.Tasks, p.Dependencies)

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, m)
			}

			risk := Green(strconv.FormatFloat(m.RiskScore, 'f', 2, 64))
			if m.RiskScore >= a.cfg.Scenario.RiskWarning {
				risk = BoldRed(strconv.FormatFloat(m.RiskScore, 'f', 2, 64))
			}
			fmt.Fprintf(out, "%s %s → %s (%d days)\n", Bold("Span"), m.ProjectStart, m.ProjectEnd, m.TotalDuration)
			fmt.Fprintf(out, "%s %s\n", Bold("Cost"), m.TotalCost.StringFixed(2))
			fmt.Fprintf(out, "%s %d days", Bold("Critical path"), m.CriticalPathLength)
			if len(m.CriticalPath) > 0 {
				ids := make([]string, len(m.CriticalPath))
				for i, id := range m.CriticalPath {
					ids[i] = string(id)
				}
				fmt.Fprintf(out, " %s", Dim(strings.Join(ids, " → ")))
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s %s%%\n", Bold("Utilization"), formatUnits(m.ResourceUtilization))
			fmt.Fprintf(out, "%s %s  %s %s%%\n", Bold("Risk"), risk, Bold("Completion"), formatUnits(m.CompletionProbability))
			return nil
		},
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

func calendarCmd(a *app) *cobra.Command {
	var calendarID string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Working-day arithmetic",
	}
	cmd.PersistentFlags().StringVar(&calendarID, "calendar", "", "Calendar id (project calendar, or standard / seven_day without a project)")

	endDate := &cobra.Command{
		Use:   "end-date START DURATION",
		Short: "Last working day of a task starting on START and lasting DURATION working days",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := generic.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("duration %q: want a non-negative number of working days", args[1])
			}
			cal, err := a.calendar(calendarID)
			if err != nil {
				return err
			}
			end, err := cal.EndFromDuration(start, n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, map[string]any{"calendar_id": cal.ID, "start": start, "duration": n, "end": end})
			}
			fmt.Fprintf(out, "%s\n", end)
			return nil
		},
	}

	days := &cobra.Command{
		Use:   "days FROM TO",
		Short: "Working days between FROM and TO inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _, err := parseWindow(args[0], args[1])
			if err != nil {
				return err
			}
			cal, err := a.calendar(calendarID)
			if err != nil {
				return err
			}
			if n := generic.DaysBetween(period.Start, period.End); n > a.cfg.Calendar.SearchHorizonDays {
				return fmt.Errorf("range of %d days exceeds the search horizon of %d", n, a.cfg.Calendar.SearchHorizonDays)
			}
			workingDays := cal.WorkingDaysIn(period)

			out := cmd.OutOrStdout()
			if a.json {
				return outputJSON(out, map[string]any{"calendar_id": cal.ID, "count": len(workingDays), "working_days": workingDays})
			}
			for _, d := range workingDays {
				fmt.Fprintf(out, "%s %s\n", d, Dim(d.Weekday().String()[:3]))
			}
			fmt.Fprintln(out, okLine(fmt.Sprintf("%d working day(s)", len(workingDays))))
			return nil
		},
	}

	cmd.AddCommand(endDate, days)
	return cmd
}

// calendar picks a calendar from the project when one is loaded, or from the
// built-in presets otherwise.
func (a *app) calendar(id string) (*calendar.WorkingCalendar, error) {
	if a.projectPath != "" {
		p, err := a.project()
		if err != nil {
			return nil, err
		}
		if id == "" {
			return a.resolver(p).Resolve(calendar.Scope{ProjectCalendar: p.CalendarID}).Calendar, nil
		}
		cal, found := p.Calendars.Get(generic.CalendarID(id))
		if !found {
			return nil, fmt.Errorf("calendar %s: %w", id, generic.ErrCalendarNotFound)
		}
		return cal, nil
	}

	var cal *calendar.WorkingCalendar
	switch strings.ToLower(id) {
	case "", "standard", "global":
		return a.global(), nil
	case "seven_day", "seven-day":
		cal = calendar.SevenDay("seven_day", "Seven day")
	default:
		return nil, fmt.Errorf("calendar %s: %w (pass --project to use project calendars)", id, generic.ErrCalendarNotFound)
	}
	a.cfg.ApplyHorizon(cal)
	return cal, nil
}

// parseWindow reads an optional inclusive date range. Both ends or neither.
func parseWindow(from, to string) (generic.Period, bool, error) {
	if from == "" && to == "" {
		return generic.Period{}, false, nil
	}
	if from == "" || to == "" {
		return generic.Period{}, false, fmt.Errorf("both --from and --to are required for a window")
	}
	start, err := generic.ParseDate(from)
	if err != nil {
		return generic.Period{}, false, err
	}
	end, err := generic.ParseDate(to)
	if err != nil {
		return generic.Period{}, false, err
	}
	p := generic.NewPeriod(start, end)
	if err := p.Validate(); err != nil {
		return generic.Period{}, false, err
	}
	return p, true, nil
}
