package style

import (
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/pterm/pterm"
)

// EventStyle returns the appropriate pterm style for an event type
func EventStyle(t types.EventType) *pterm.Style {
	switch t {
	case types.EventInstall:
		return pterm.NewStyle(pterm.FgGreen)
	case types.EventUninstall:
		return pterm.NewStyle(pterm.FgYellow)
	case types.EventInstallFailed:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// EventVerbs defines the display verb for each event type
var EventVerbs = map[types.EventType]string{
	types.EventInstall:       "installed",
	types.EventUninstall:     "removed",
	types.EventInstallFailed: "failed",
}

// Text and path styles shared by the terminal renderer
var (
	TitleStyle = pterm.NewStyle(pterm.Bold)
	MutedStyle = pterm.NewStyle(pterm.FgGray)
	PathStyle  = pterm.NewStyle(pterm.FgCyan)
	ErrorStyle = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	WarnStyle  = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
)
