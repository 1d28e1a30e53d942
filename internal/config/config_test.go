package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "off", cfg.Continuation.DefaultMode)
	require.Equal(t, 1800, cfg.Session.Recovery.StaleAfterSeconds)
	require.Contains(t, cfg.Validation.Presets, "quick")
	require.Contains(t, cfg.Validation.Presets, "standard")
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edison.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[continuation]
default_mode = "soft"
completion_policy = "all_tasks_validated"

[session.recovery]
block_on_stale = true
stale_after_seconds = 60
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "soft", cfg.Continuation.DefaultMode)
	require.Equal(t, "all_tasks_validated", cfg.Continuation.CompletionPolicy)
	require.True(t, cfg.Session.Recovery.BlockOnStale)
	require.Equal(t, 60, cfg.Session.Recovery.StaleAfterSeconds)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edison.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[continuation]
default_mode = "soft"
`), 0o644))

	t.Setenv("EDISON_CONTINUATION_DEFAULT_MODE", "hard")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hard", cfg.Continuation.DefaultMode)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edison.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[continuation]
default_mode = "bogus"
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edison.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[continuation]
not_a_real_key = "x"
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
