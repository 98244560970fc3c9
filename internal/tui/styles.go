package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#a78bfa")
	colorBase    = lipgloss.Color("#c0c0c0")
	colorMuted   = lipgloss.Color("#808080")
	colorSubtle  = lipgloss.Color("#585858")
	colorCursor  = lipgloss.Color("#303030")
	colorError   = lipgloss.Color("#ff5555")

	baseStyle   = lipgloss.NewStyle().Foreground(colorBase)
	titleStyle  = baseStyle.Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)

	playingStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Background(colorCursor).Foreground(colorBase)
	upNextStyle  = lipgloss.NewStyle().Foreground(colorPrimary)

	barBorderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle)

	panelBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorSubtle)

	progressFilledStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	progressEmptyStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
)
