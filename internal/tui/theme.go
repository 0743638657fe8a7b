package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the grid uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface2 lipgloss.Color = "#585b70"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	periodStyle = lipgloss.NewStyle().Foreground(colorMauve).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSubtext0).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorSurface2)

	cursorRowStyle = lipgloss.NewStyle().Background(colorSurface0)
	focusCellStyle = lipgloss.NewStyle().Foreground(colorFocus).Bold(true).Underline(true)
	editCellStyle  = lipgloss.NewStyle().Foreground(colorMantle).Background(colorFocus)
	draftRowStyle  = lipgloss.NewStyle().Background(colorSurface1)
	pendingStyle   = lipgloss.NewStyle().Foreground(colorPeach).Italic(true)
	savingStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	rowErrorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	creditStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	debitStyle  = lipgloss.NewStyle().Foreground(colorError)

	summaryLabelStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	summaryValueStyle = lipgloss.NewStyle().Foreground(colorPeach)

	suggestBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface2).
			Padding(0, 1)
	suggestActiveStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	statusStyle    = lipgloss.NewStyle().Foreground(colorText)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError)
	loadingStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	helpKeyStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)
)
