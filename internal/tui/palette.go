package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk     = lipgloss.Color("#E5E9F0")
	ColorDim     = lipgloss.Color("#7A8291")
	ColorAccent  = lipgloss.Color("#88C0D0")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#EBCB8B")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(ColorInk)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(ColorAccent)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorDim)
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	okStyle     = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
)
