package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors
var (
	colGray     = lipgloss.AdaptiveColor{Light: "#646464", Dark: "#9A9A9A"}
	colDirBlue  = lipgloss.AdaptiveColor{Light: "#000080", Dark: "#6CA0DC"}
	colSelected = lipgloss.AdaptiveColor{Light: "#C8DCFF", Dark: "#2A3F66"}
	colDisabled = lipgloss.AdaptiveColor{Light: "#969696", Dark: "#5C5C5C"}
	colProgress = lipgloss.Color("#4285F4")
	colDanger   = lipgloss.Color("#DC3545")
	colSuccess  = lipgloss.Color("#28A745")
	colAccent   = lipgloss.Color("#4285F4")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colAccent)

	titleStyle    = lipgloss.NewStyle()
	dirStyle      = lipgloss.NewStyle().Bold(true).Foreground(colDirBlue)
	disabledStyle = lipgloss.NewStyle().Foreground(colDisabled)
	checkedStyle  = lipgloss.NewStyle().Background(colSelected)
	line2Style    = lipgloss.NewStyle().Foreground(colGray).PaddingLeft(6)

	infoStyle    = lipgloss.NewStyle().Foreground(colGray).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colDanger)
	loadingStyle = lipgloss.NewStyle().Foreground(colProgress)
	emptyStyle   = lipgloss.NewStyle().Foreground(colGray).Padding(1, 2)

	cellStyle = lipgloss.NewStyle().Width(gridCellWidth).Height(3).Padding(0, 1)
)
