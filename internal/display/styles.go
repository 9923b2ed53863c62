package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/AScotM/tcpwatch/internal/conn"
)

// Color palette.
var (
	colorGreen   = lipgloss.Color("2")
	colorYellow  = lipgloss.Color("3")
	colorRed     = lipgloss.Color("1")
	colorBlue    = lipgloss.Color("4")
	colorMagenta = lipgloss.Color("5")
	colorGray    = lipgloss.Color("8")
	colorWhite   = lipgloss.Color("15")
)

// stateStyles maps connection states to their display color. Healthy
// states are green/yellow, transitional ones cold colors, teardown and
// error-ish states red.
var stateStyles = map[conn.State]lipgloss.Style{
	conn.StateEstablished: lipgloss.NewStyle().Foreground(colorGreen),
	conn.StateListen:      lipgloss.NewStyle().Foreground(colorYellow),
	conn.StateSynSent:     lipgloss.NewStyle().Foreground(colorRed),
	conn.StateSynRecv:     lipgloss.NewStyle().Foreground(colorRed),
	conn.StateFinWait1:    lipgloss.NewStyle().Foreground(colorMagenta),
	conn.StateFinWait2:    lipgloss.NewStyle().Foreground(colorMagenta),
	conn.StateTimeWait:    lipgloss.NewStyle().Foreground(colorBlue),
	conn.StateClose:       lipgloss.NewStyle().Foreground(colorRed),
	conn.StateCloseWait:   lipgloss.NewStyle().Foreground(colorRed),
	conn.StateLastAck:     lipgloss.NewStyle().Foreground(colorBlue),
	conn.StateClosing:     lipgloss.NewStyle().Foreground(colorBlue),
	conn.StateUnknown:     lipgloss.NewStyle().Foreground(colorGray),
}

var defaultStateStyle = lipgloss.NewStyle().Foreground(colorWhite)

// StateStyle returns the style for rendering a connection state.
func StateStyle(s conn.State) lipgloss.Style {
	if style, ok := stateStyles[s]; ok {
		return style
	}
	return defaultStateStyle
}
