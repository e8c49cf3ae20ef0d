package cmd

import "charm.land/lipgloss/v2"

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorTeal    = lipgloss.Color("#14B8A6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
	colorBorder  = lipgloss.Color("#334155")
)

var (
	problemStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Bold(true)

	studentLabel = lipgloss.NewStyle().Foreground(colorTeal).Bold(true)
	tutorLabel   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	solvedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)
