// Package ui renders the terminal dashboard.
package ui

import "github.com/charmbracelet/lipgloss"

// Color definitions for the dashboard theme.
var (
	colorPrimary = lipgloss.Color("205")
	colorSubtle  = lipgloss.Color("240")

	colorHealthy  = lipgloss.Color("42")
	colorWarning  = lipgloss.Color("220")
	colorCritical = lipgloss.Color("196")
	colorInfo     = lipgloss.Color("39")

	colorTextPrimary   = lipgloss.Color("252")
	colorTextSecondary = lipgloss.Color("245")
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	MarginBottom(1)

var helpStyle = lipgloss.NewStyle().
	Foreground(colorSubtle)

var selectedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorTextPrimary)

var rowStyle = lipgloss.NewStyle().
	Foreground(colorTextSecondary)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorCritical)

// percentStyle picks a color by how much of the quota is used.
func percentStyle(usedPercent float64) lipgloss.Style {
	switch {
	case usedPercent >= 90:
		return lipgloss.NewStyle().Foreground(colorCritical)
	case usedPercent >= 70:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Foreground(colorHealthy)
	}
}
