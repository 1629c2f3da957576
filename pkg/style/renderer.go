package style

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Renderer defines the interface for rendering command results
type Renderer interface {
	RenderTarget(t *types.InstallTarget) string
	RenderTargets(targets []types.InstallTarget) string
	RenderEvents(events []types.HistoryEvent) string
	RenderRemoved(path string) string
	RenderError(err error) string
}

// NewRenderer selects a renderer for the format, resolving FormatAuto
// against the output's terminal capabilities.
func NewRenderer(format Format, output *os.File) Renderer {
	if format == FormatAuto {
		format = DetectFormat(output)
	}
	switch format {
	case FormatJSON:
		return &MachineRenderer{marshal: marshalJSON}
	case FormatYAML:
		return &MachineRenderer{marshal: marshalYAML}
	case FormatTerminal:
		return NewTerminalRenderer()
	default:
		return NewPlainRenderer()
	}
}

// TerminalRenderer implements Renderer with rich terminal output
type TerminalRenderer struct{}

// NewTerminalRenderer creates a new terminal renderer
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{}
}

// RenderTarget renders the result of a single install
func (r *TerminalRenderer) RenderTarget(t *types.InstallTarget) string {
	return fmt.Sprintf("%s %s %s (%s, %d bytes, sha256 %s)",
		pterm.Success.Prefix.Text,
		EventStyle(types.EventInstall).Sprint("installed"),
		PathStyle.Sprint(t.Path),
		t.Mode.Perm(),
		t.Size,
		shortDigest(t.Digest))
}

// RenderTargets renders the currently installed files
func (r *TerminalRenderer) RenderTargets(targets []types.InstallTarget) string {
	if len(targets) == 0 {
		return MutedStyle.Sprint("Nothing installed")
	}

	var result strings.Builder
	result.WriteString(TitleStyle.Sprint("Installed") + "\n")
	for _, t := range targets {
		line := fmt.Sprintf("  %-20s %s %s %s",
			t.Name,
			PathStyle.Sprint(t.Path),
			MutedStyle.Sprint(shortDigest(t.Digest)),
			MutedStyle.Sprint(t.InstalledAt.Format(time.RFC3339)))
		if missingOnDisk(t.Path) {
			line += " " + WarnStyle.Sprint("(missing on disk)")
		}
		result.WriteString(line + "\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// RenderEvents renders history events, one line per event
func (r *TerminalRenderer) RenderEvents(events []types.HistoryEvent) string {
	if len(events) == 0 {
		return MutedStyle.Sprint("No history")
	}

	var result strings.Builder
	for _, e := range events {
		verb := EventVerbs[e.Type]
		if verb == "" {
			verb = string(e.Type)
		}
		line := fmt.Sprintf("%4d  %s  %-9s %-20s %s",
			e.ID,
			MutedStyle.Sprint(e.Timestamp.Format(time.RFC3339)),
			EventStyle(e.Type).Sprint(verb),
			e.Name,
			MutedStyle.Sprint(e.Actor))
		if e.Type == types.EventInstallFailed && e.Details != "" {
			line += " " + ErrorStyle.Sprint(e.Details)
		}
		result.WriteString(line + "\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// RenderRemoved renders the result of an uninstall
func (r *TerminalRenderer) RenderRemoved(path string) string {
	return fmt.Sprintf("%s %s %s",
		pterm.Success.Prefix.Text,
		EventStyle(types.EventUninstall).Sprint("removed"),
		PathStyle.Sprint(path))
}

// RenderError renders an error message with its code when present
func (r *TerminalRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}

	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		return fmt.Sprintf("%s Error [%s]: %s",
			pterm.Error.Prefix.Text,
			ErrorStyle.Sprint(string(code)),
			err.Error())
	}
	return fmt.Sprintf("%s %s", pterm.Error.Prefix.Text, ErrorStyle.Sprint(err.Error()))
}

// PlainRenderer implements Renderer with plain text output (no styling)
type PlainRenderer struct{}

// NewPlainRenderer creates a new plain text renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// RenderTarget renders a plain install result
func (r *PlainRenderer) RenderTarget(t *types.InstallTarget) string {
	return fmt.Sprintf("installed %s (%s, %d bytes, sha256 %s)",
		t.Path, t.Mode.Perm(), t.Size, shortDigest(t.Digest))
}

// RenderTargets renders a plain listing of installed files
func (r *PlainRenderer) RenderTargets(targets []types.InstallTarget) string {
	if len(targets) == 0 {
		return "Nothing installed"
	}

	var result strings.Builder
	for _, t := range targets {
		line := fmt.Sprintf("%-20s %s %s %s",
			t.Name, t.Path, shortDigest(t.Digest), t.InstalledAt.Format(time.RFC3339))
		if missingOnDisk(t.Path) {
			line += " (missing on disk)"
		}
		result.WriteString(line + "\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// RenderEvents renders plain history events
func (r *PlainRenderer) RenderEvents(events []types.HistoryEvent) string {
	if len(events) == 0 {
		return "No history"
	}

	var result strings.Builder
	for _, e := range events {
		verb := EventVerbs[e.Type]
		if verb == "" {
			verb = string(e.Type)
		}
		line := fmt.Sprintf("%4d  %s  %-9s %-20s %s",
			e.ID, e.Timestamp.Format(time.RFC3339), verb, e.Name, e.Actor)
		if e.Type == types.EventInstallFailed && e.Details != "" {
			line += " " + e.Details
		}
		result.WriteString(line + "\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// RenderRemoved renders a plain uninstall result
func (r *PlainRenderer) RenderRemoved(path string) string {
	return fmt.Sprintf("removed %s", path)
}

// RenderError renders a plain error message
func (r *PlainRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		return fmt.Sprintf("Error [%s]: %s", code, err.Error())
	}
	return fmt.Sprintf("Error: %s", err.Error())
}

// MachineRenderer implements Renderer for machine-readable formats
type MachineRenderer struct {
	marshal func(v interface{}) (string, error)
}

// RenderTarget marshals a single install result
func (r *MachineRenderer) RenderTarget(t *types.InstallTarget) string {
	return r.must(t)
}

// RenderTargets marshals the installed files
func (r *MachineRenderer) RenderTargets(targets []types.InstallTarget) string {
	return r.must(targets)
}

// RenderEvents marshals history events
func (r *MachineRenderer) RenderEvents(events []types.HistoryEvent) string {
	return r.must(events)
}

// RenderRemoved marshals an uninstall result
func (r *MachineRenderer) RenderRemoved(path string) string {
	return r.must(map[string]string{"removed": path})
}

// RenderError marshals an error with its code
func (r *MachineRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}
	return r.must(map[string]string{
		"error": err.Error(),
		"code":  string(errors.GetErrorCode(err)),
	})
}

func (r *MachineRenderer) must(v interface{}) string {
	out, err := r.marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return out
}

func marshalJSON(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func marshalYAML(v interface{}) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// missingOnDisk reports whether a recorded install no longer exists on
// disk, which happens when the file was removed outside of binstall.
func missingOnDisk(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
