// pkg/style/style_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test format parsing and renderer output shapes

package style

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTarget() *types.InstallTarget {
	return &types.InstallTarget{
		Name:        "mytool",
		Path:        "/usr/local/bin/mytool",
		Source:      "/home/alice/mytool",
		InstalledAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Mode:        0755,
		Size:        1024,
		Digest:      "0123456789abcdef0123456789abcdef",
	}
}

func sampleEvents() []types.HistoryEvent {
	return []types.HistoryEvent{
		{
			ID:        1,
			Type:      types.EventInstall,
			Name:      "mytool",
			Path:      "/usr/local/bin/mytool",
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Actor:     "alice",
		},
		{
			ID:        2,
			Type:      types.EventInstallFailed,
			Name:      "badtool",
			Timestamp: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
			Actor:     "alice",
			Details:   "source is a symlink",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"term", FormatTerminal, false},
		{"terminal", FormatTerminal, false},
		{"text", FormatText, false},
		{"plain", FormatText, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", FormatAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.Equal(t, "auto", FormatAuto.String())
}

func TestPlainRendererTarget(t *testing.T) {
	r := NewPlainRenderer()
	out := r.RenderTarget(sampleTarget())

	assert.Contains(t, out, "/usr/local/bin/mytool")
	assert.Contains(t, out, "0123456789ab", "digest is shortened")
	assert.NotContains(t, out, "0123456789abc")
	assert.Contains(t, out, "1024 bytes")
}

func TestPlainRendererEvents(t *testing.T) {
	r := NewPlainRenderer()
	out := r.RenderEvents(sampleEvents())

	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "mytool")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "source is a symlink")

	assert.Equal(t, "No history", r.RenderEvents(nil))
}

func TestPlainRendererFlagsMissingFiles(t *testing.T) {
	r := NewPlainRenderer()

	gone := sampleTarget()
	gone.Path = filepath.Join(t.TempDir(), "vanished")
	out := r.RenderTargets([]types.InstallTarget{*gone})
	assert.Contains(t, out, "(missing on disk)")

	present := sampleTarget()
	present.Path = filepath.Join(t.TempDir(), "here")
	require.NoError(t, os.WriteFile(present.Path, []byte("x"), 0755))
	out = r.RenderTargets([]types.InstallTarget{*present})
	assert.NotContains(t, out, "(missing on disk)")
}

func TestPlainRendererError(t *testing.T) {
	r := NewPlainRenderer()

	out := r.RenderError(errors.New(errors.ErrSymlinkDetected, "source is a symlink"))
	assert.Contains(t, out, "SYMLINK_DETECTED")

	assert.Empty(t, r.RenderError(nil))
}

func TestTerminalRendererMentionsContent(t *testing.T) {
	r := NewTerminalRenderer()

	out := r.RenderTargets([]types.InstallTarget{*sampleTarget()})
	assert.Contains(t, out, "mytool")

	out = r.RenderRemoved("/usr/local/bin/mytool")
	assert.Contains(t, out, "/usr/local/bin/mytool")
}

func TestJSONRendererRoundTrips(t *testing.T) {
	r := &MachineRenderer{marshal: marshalJSON}

	out := r.RenderEvents(sampleEvents())
	var decoded []types.HistoryEvent
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(1), decoded[0].ID)
	assert.Equal(t, types.EventInstallFailed, decoded[1].Type)
}

func TestYAMLRendererRoundTrips(t *testing.T) {
	r := &MachineRenderer{marshal: marshalYAML}

	out := r.RenderTargets([]types.InstallTarget{*sampleTarget()})
	var decoded []types.InstallTarget
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "mytool", decoded[0].Name)
}

func TestNewRendererSelectsByFormat(t *testing.T) {
	assert.IsType(t, &PlainRenderer{}, NewRenderer(FormatText, nil))
	assert.IsType(t, &TerminalRenderer{}, NewRenderer(FormatTerminal, nil))
	assert.IsType(t, &MachineRenderer{}, NewRenderer(FormatJSON, nil))
	assert.IsType(t, &MachineRenderer{}, NewRenderer(FormatYAML, nil))
}
