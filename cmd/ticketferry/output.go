package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"ticketferry/internal/migrate"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const summaryLabelWidth = 18

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func summaryLine(label, value, color string, colorize bool) string {
	line := fmt.Sprintf("  %-*s %s", summaryLabelWidth, label+":", value)
	if colorize && color != "" {
		return color + line + ansiReset
	}
	return line
}

func printOutcome(out io.Writer, outcome migrate.Outcome) {
	colorize := shouldColorize(out)

	title := "Migration finished"
	if outcome.DryRun {
		title = "Dry run finished"
	}
	fmt.Fprintf(out, "%s (run %s)\n", title, outcome.RunID)

	migratedColor := ansiGreen
	if outcome.Migrated == 0 {
		migratedColor = ""
	}
	failedColor := ""
	if outcome.Failed > 0 {
		failedColor = ansiRed
	}
	warnColor := ""
	if outcome.SoftFailures > 0 || outcome.SkippedContent > 0 {
		warnColor = ansiYellow
	}

	fmt.Fprintln(out, summaryLine("Planned", formatCount(outcome.Planned), "", colorize))
	fmt.Fprintln(out, summaryLine("Migrated", formatCount(outcome.Migrated), migratedColor, colorize))
	fmt.Fprintln(out, summaryLine("Already linked", formatCount(outcome.Skipped), "", colorize))
	fmt.Fprintln(out, summaryLine("Failed", formatCount(outcome.Failed), failedColor, colorize))
	if !outcome.DryRun {
		fmt.Fprintln(out, summaryLine("Watchers", formatCount(outcome.Watchers), "", colorize))
		fmt.Fprintln(out, summaryLine("Followups", formatCount(outcome.Followups), "", colorize))
		fmt.Fprintln(out, summaryLine("Documents", formatCount(outcome.Documents), "", colorize))
		fmt.Fprintln(out, summaryLine("Missing content", formatCount(outcome.SkippedContent), warnColor, colorize))
		fmt.Fprintln(out, summaryLine("Soft failures", formatCount(outcome.SoftFailures), warnColor, colorize))
	}
	fmt.Fprintln(out, summaryLine("Duration", outcome.Duration.Round(time.Millisecond).String(), "", colorize))
}
