// Package colors provides the small set of ANSI styling helpers used by
// treeview and the CLI's error/status output. It is rebuilt on top of
// charm.land/lipgloss/v2 rather than hand-rolled escape sequences, since
// lipgloss (and its visual-width sibling github.com/charmbracelet/x/ansi)
// are already part of this module's dependency surface.
package colors

import (
	"github.com/charmbracelet/x/ansi"
	"charm.land/lipgloss/v2"
)

var (
	grayStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	whiteStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	brightWhiteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	greenStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	brightGreenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	brightRedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	brightYellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	brightOrange     = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	brightCyanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// Gray renders s dimmed, for secondary/pending indicators.
func Gray(s string) string { return grayStyle.Render(s) }

// White renders s in the default readable foreground.
func White(s string) string { return whiteStyle.Render(s) }

// BrightWhite renders s bold white, used for headers.
func BrightWhite(s string) string { return brightWhiteStyle.Render(s) }

// Green renders s green, for passing summaries.
func Green(s string) string { return greenStyle.Render(s) }

// BrightGreen renders s bold green, for passed/success indicators.
func BrightGreen(s string) string { return brightGreenStyle.Render(s) }

// BrightRed renders s bold red, for failed/error indicators.
func BrightRed(s string) string { return brightRedStyle.Render(s) }

// BrightYellow renders s bold yellow, for skipped indicators.
func BrightYellow(s string) string { return brightYellow.Render(s) }

// BrightOrange renders s bold orange, for running/in-progress indicators.
func BrightOrange(s string) string { return brightOrange.Render(s) }

// VisualLength returns the rendered width of s, ignoring ANSI escape
// sequences -- used by treeview to size box-drawing borders around
// already-colored text.
func VisualLength(s string) int {
	return ansi.StringWidth(s)
}
