package tui

import (
	"charm.land/lipgloss/v2"

	"natify.dev/natify/internal/tui/theme"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary)

	headerStyle = theme.HeaderStyle

	labelStyle = theme.MutedStyle

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Success)

	driftStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Warning)

	profileStyle = lipgloss.NewStyle().
			Foreground(theme.Secondary)

	helpStyle = theme.HelpStyle

	errorStyle = theme.ErrorStyle

	dashboardStyle = theme.DashboardStyle
)
