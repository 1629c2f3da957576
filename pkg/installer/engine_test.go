// pkg/installer/engine_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem
// PURPOSE: Test the install/uninstall engine end to end

package installer_test

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/installer"
	"github.com/arthur-debert/binstall/pkg/paths"
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*installer.Engine, string) {
	t.Helper()

	root := t.TempDir()
	p, err := paths.New(types.ScopeUser, root, "")
	require.NoError(t, err)

	return installer.New(p, 0755, false, false), root
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()

	src := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(src, []byte(content), 0644))
	return src
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestInstallBinary(t *testing.T) {
	eng, root := newTestEngine(t)
	src := writeSource(t, "mytool", "\x7fELF binary content")

	target, err := eng.Install(installer.InstallRequest{Source: src})
	require.NoError(t, err)

	assert.Equal(t, "mytool", target.Name)
	assert.Equal(t, filepath.Join(root, "mytool"), target.Path)
	assert.Equal(t, fs.FileMode(0755), target.Mode)
	assert.Equal(t, int64(len("\x7fELF binary content")), target.Size)

	// Digest round-trip: committed bytes are exactly the staged bytes.
	sum := sha256.Sum256([]byte("\x7fELF binary content"))
	assert.Equal(t, hex.EncodeToString(sum[:]), target.Digest)

	fi, err := os.Stat(target.Path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0755), fi.Mode().Perm())
}

func TestInstallPythonScript(t *testing.T) {
	eng, root := newTestEngine(t)
	src := writeSource(t, "myscript.py", "print('hi')\n")

	target, err := eng.Install(installer.InstallRequest{Source: src})
	require.NoError(t, err)

	// Extension stripped, shebang added, executable.
	assert.Equal(t, "myscript", target.Name)

	content, err := os.ReadFile(filepath.Join(root, "myscript"))
	require.NoError(t, err)
	firstLine := strings.SplitN(string(content), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(firstLine, "#!/"),
		"installed script must start with an absolute interpreter path, got %q", firstLine)

	fi, err := os.Stat(target.Path)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&0111, "installed script must be executable")

	// Digest covers the transformed content.
	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), target.Digest)
}

func TestInstallExplicitNameKeepsName(t *testing.T) {
	eng, _ := newTestEngine(t)
	src := writeSource(t, "myscript.py", "print('hi')\n")

	target, err := eng.Install(installer.InstallRequest{Source: src, Name: "runner.py"})
	require.NoError(t, err)
	assert.Equal(t, "runner.py", target.Name)
}

func TestInstallKeepExtension(t *testing.T) {
	eng, _ := newTestEngine(t)
	src := writeSource(t, "myscript.py", "print('hi')\n")

	target, err := eng.Install(installer.InstallRequest{Source: src, KeepExtension: true})
	require.NoError(t, err)
	assert.Equal(t, "myscript.py", target.Name)
}

func TestInstallConflict(t *testing.T) {
	eng, root := newTestEngine(t)
	first := writeSource(t, "app", "first content")
	second := writeSource(t, "app2", "second content")

	_, err := eng.Install(installer.InstallRequest{Source: first, Name: "app"})
	require.NoError(t, err)

	_, err = eng.Install(installer.InstallRequest{Source: second, Name: "app"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrAlreadyExists, errors.GetErrorCode(err))

	// The original content is untouched.
	content, err := os.ReadFile(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, "first content", string(content))
}

func TestInstallForceOverwrites(t *testing.T) {
	eng, root := newTestEngine(t)
	first := writeSource(t, "app", "first content")
	second := writeSource(t, "app2", "second content")

	_, err := eng.Install(installer.InstallRequest{Source: first, Name: "app"})
	require.NoError(t, err)

	_, err = eng.Install(installer.InstallRequest{Source: second, Name: "app", Force: true})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, "second content", string(content))
}

func TestInstallSymlinkSourceLeavesDestinationUnchanged(t *testing.T) {
	eng, root := newTestEngine(t)
	real := writeSource(t, "real", "content")
	link := filepath.Join(filepath.Dir(real), "link")
	require.NoError(t, os.Symlink(real, link))

	before := listDir(t, root)

	_, err := eng.Install(installer.InstallRequest{Source: link})
	require.Error(t, err)
	assert.Equal(t, errors.ErrSymlinkDetected, errors.GetErrorCode(err))

	assert.Equal(t, before, listDir(t, root))
}

func TestInstallTraversalNameFailsBeforeWrite(t *testing.T) {
	eng, root := newTestEngine(t)
	src := writeSource(t, "app", "content")

	_, err := eng.Install(installer.InstallRequest{Source: src, Name: "../../etc/passwd"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPathTraversal, errors.GetErrorCode(err))
	assert.Empty(t, listDir(t, root))
}

func TestInstallMissingSource(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Install(installer.InstallRequest{Source: filepath.Join(t.TempDir(), "ghost")})
	require.Error(t, err)
	assert.Equal(t, errors.ErrSourceNotFound, errors.GetErrorCode(err))
}

func TestInstallMissingRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "bin")
	p, err := paths.New(types.ScopeUser, root, "")
	require.NoError(t, err)
	src := writeSource(t, "app", "content")

	t.Run("fails_without_create_root", func(t *testing.T) {
		eng := installer.New(p, 0755, false, false)
		_, err := eng.Install(installer.InstallRequest{Source: src})
		require.Error(t, err)
		assert.Equal(t, errors.ErrNotFound, errors.GetErrorCode(err))
	})

	t.Run("creates_root_when_permitted", func(t *testing.T) {
		eng := installer.New(p, 0755, true, false)
		target, err := eng.Install(installer.InstallRequest{Source: src})
		require.NoError(t, err)
		assert.FileExists(t, target.Path)
	})
}

func TestUninstall(t *testing.T) {
	eng, root := newTestEngine(t)
	src := writeSource(t, "app", "content")

	before := listDir(t, root)

	_, err := eng.Install(installer.InstallRequest{Source: src})
	require.NoError(t, err)

	removed, err := eng.Uninstall("app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app"), removed)

	// Install then uninstall restores the original directory listing.
	assert.Equal(t, before, listDir(t, root))
}

func TestUninstallNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Uninstall("ghost")
	require.Error(t, err)
	assert.Equal(t, errors.ErrNotFound, errors.GetErrorCode(err))
}

func TestUninstallSymlinkRejected(t *testing.T) {
	eng, root := newTestEngine(t)
	elsewhere := writeSource(t, "real", "content")
	require.NoError(t, os.Symlink(elsewhere, filepath.Join(root, "app")))

	_, err := eng.Uninstall("app")
	require.Error(t, err)
	assert.Equal(t, errors.ErrSymlinkDetected, errors.GetErrorCode(err))

	// The symlink is left in place; we refuse to touch it.
	_, err = os.Lstat(filepath.Join(root, "app"))
	assert.NoError(t, err)
}

func TestUninstallTraversalRejected(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Uninstall("../../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, errors.ErrPathTraversal, errors.GetErrorCode(err))
}

func TestInstallSurvivesUnreadableMode(t *testing.T) {
	// A mode without a read bit makes the committed file impossible to
	// read back for verification. The install must still succeed with
	// the record built from the staged bytes.
	root := t.TempDir()
	p, err := paths.New(types.ScopeUser, root, "")
	require.NoError(t, err)
	eng := installer.New(p, 0311, false, false)

	content := "\x7fELF binary content"
	src := writeSource(t, "mytool", content)

	target, err := eng.Install(installer.InstallRequest{Source: src})
	require.NoError(t, err)
	require.NotNil(t, target)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), target.Digest)
	assert.Equal(t, int64(len(content)), target.Size)
	assert.Equal(t, fs.FileMode(0311), target.Mode)

	fi, err := os.Lstat(target.Path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0311), fi.Mode().Perm())
}
