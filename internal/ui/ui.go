// Package ui provides terminal output helpers: colors, spinners and the
// table/json/yaml printer used by listing commands.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Colors returns true if colored output should be enabled.
// Respects NO_COLOR env var and --no-color flag.
func Colors(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

// Theme holds the styles used across commands.
type Theme struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
}

// NewTheme returns the styled theme, or plain styles when color is disabled.
func NewTheme(color bool) Theme {
	if !color {
		plain := lipgloss.NewStyle()
		return Theme{Title: plain, Success: plain, Warning: plain, Error: plain, Muted: plain, Accent: plain}
	}
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// TrainingStatus renders a backend training status with a status color.
func (t Theme) TrainingStatus(status string) string {
	switch status {
	case "":
		return t.Muted.Render("untrained")
	case "trained", "completed", "ready":
		return t.Success.Render(status)
	case "failed", "error":
		return t.Error.Render(status)
	default:
		return t.Warning.Render(status)
	}
}
