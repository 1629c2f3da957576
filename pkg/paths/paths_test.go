// pkg/paths/paths_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Environment variables only
// PURPOSE: Test scope resolution and target path computation

package paths_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/paths"
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("explicit_roots_win", func(t *testing.T) {
		dir := t.TempDir()
		history := filepath.Join(dir, "log", "history.jsonl")

		p, err := paths.New(types.ScopeUser, dir, history)
		require.NoError(t, err)

		assert.Equal(t, types.ScopeUser, p.Scope())
		assert.Equal(t, dir, p.Root())
		assert.Equal(t, history, p.HistoryFile())
		assert.Equal(t, history+".lock", p.LockFile())
	})

	t.Run("system_defaults", func(t *testing.T) {
		p, err := paths.New(types.ScopeSystem, "", "")
		require.NoError(t, err)

		assert.Equal(t, paths.DefaultSystemRoot, p.Root())
		assert.Equal(t,
			filepath.Join(paths.DefaultSystemHistoryDir, paths.HistoryFileName),
			p.HistoryFile())
	})

	t.Run("user_history_respects_xdg_state_home", func(t *testing.T) {
		stateDir := t.TempDir()
		t.Setenv("XDG_STATE_HOME", stateDir)

		p, err := paths.New(types.ScopeUser, t.TempDir(), "")
		require.NoError(t, err)

		assert.Equal(t,
			filepath.Join(stateDir, "binstall", "history.jsonl"),
			p.HistoryFile())
	})

	t.Run("invalid_scope", func(t *testing.T) {
		_, err := paths.New(types.Scope("global"), "", "")
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvalidInput, errors.GetErrorCode(err))
	})

	t.Run("relative_root_becomes_absolute", func(t *testing.T) {
		p, err := paths.New(types.ScopeUser, "relative/bin", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(p.Root()))
	})
}

func TestTargetPath(t *testing.T) {
	root := t.TempDir()
	p, err := paths.New(types.ScopeUser, root, "")
	require.NoError(t, err)

	t.Run("valid_name", func(t *testing.T) {
		target, err := p.TargetPath("myapp")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "myapp"), target)
	})

	t.Run("traversal_name_rejected_before_any_write", func(t *testing.T) {
		_, err := p.TargetPath("../../etc/passwd")
		require.Error(t, err)
		assert.Equal(t, errors.ErrPathTraversal, errors.GetErrorCode(err))
	})

	t.Run("separator_name_rejected", func(t *testing.T) {
		_, err := p.TargetPath("sub/app")
		require.Error(t, err)
		assert.Equal(t, errors.ErrPathTraversal, errors.GetErrorCode(err))
		assert.True(t, strings.Contains(err.Error(), "separator"))
	})
}
