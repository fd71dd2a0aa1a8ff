package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Gradipoo/tui-jxl-converter/internal/convert"
)

var (
	ColorInk     = lipgloss.Color("#E5E9F0")
	ColorDim     = lipgloss.Color("#7A8291")
	ColorAccent  = lipgloss.Color("#88C0D0")
	ColorBlue    = lipgloss.Color("#81A1C1")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#EBCB8B")
	ColorError   = lipgloss.Color("#BF616A")
	ColorBusy    = lipgloss.Color("#B48EAD")
)

var (
	headerBarStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorInk).Background(lipgloss.Color("#3B4252"))
	colHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
	dimStyle       = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle      = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle     = lipgloss.NewStyle().Foreground(ColorError)
	infoStyle      = lipgloss.NewStyle().Foreground(ColorAccent)
	successStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	keyStyle       = lipgloss.NewStyle().Foreground(ColorSuccess)
	keyActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess).Reverse(true)
	labelStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	labelActive    = lipgloss.NewStyle().Bold(true).Foreground(ColorWarn)
	dialogStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorAccent).Padding(0, 2)
)

// statusStyle maps each state-machine value to its list color.
func statusStyle(s convert.Status) lipgloss.Style {
	switch s {
	case convert.StatusSelected:
		return warnStyle
	case convert.StatusQueued:
		return lipgloss.NewStyle().Foreground(ColorBlue)
	case convert.StatusSanitizing, convert.StatusConverting:
		return lipgloss.NewStyle().Foreground(ColorBusy)
	case convert.StatusSuccess:
		return successStyle
	case convert.StatusFailed:
		return errorStyle
	default:
		return infoStyle
	}
}
