package main

import (
	"github.com/fatih/color"

	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/resource"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

func violationSeverity(s constraint.Severity) string {
	switch s {
	case constraint.SeverityCritical:
		return BoldRed(string(s))
	case constraint.SeverityError:
		return Red(string(s))
	default:
		return Yellow(string(s))
	}
}

func conflictSeverity(s resource.Severity) string {
	switch s {
	case resource.SeverityCritical:
		return BoldRed(string(s))
	case resource.SeverityHigh:
		return Red(string(s))
	case resource.SeverityMedium:
		return Yellow(string(s))
	default:
		return Dim(string(s))
	}
}

// okLine prefixes a green check, warnLine a yellow mark.
func okLine(msg string) string   { return BoldGreen("✓") + " " + msg }
func warnLine(msg string) string { return BoldYellow("!") + " " + msg }
