package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/haiku/internal/haiku"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	poemStyle    = lipgloss.NewStyle().Italic(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
)

func render(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(successStyle, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(errorStyle, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(warningStyle, "⚠ "+fmt.Sprintf(format, args...)))
}

func printStep(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(stepStyle, "→ "+fmt.Sprintf(format, args...)))
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", render(labelStyle, label+":"), fmt.Sprintf(format, args...))
}

// formatHaiku renders a poem and its theme line. withDate adds the creation
// date the way the history list shows it.
func formatHaiku(rec haiku.Record, withDate bool) string {
	meta := "Theme: " + rec.Theme
	if withDate {
		meta += " | " + rec.CreatedAt.Local().Format("Jan 2, 2006")
	}
	if noColor {
		return rec.Text + "\n" + meta
	}
	return strings.Join([]string{poemStyle.Render(rec.Text), mutedStyle.Render(meta)}, "\n")
}
