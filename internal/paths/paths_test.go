package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePrimaryCheckout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".edison"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r, err := Resolve(sub)
	require.NoError(t, err)
	require.Equal(t, root, r.Root)
	require.Equal(t, KindPrimary, r.Kind)
	require.False(t, r.IsLinkedWorktree())
}

func TestResolveLinkedWorktree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".edison"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: /elsewhere/.git/worktrees/x\n"), 0o644))

	r, err := Resolve(root)
	require.NoError(t, err)
	require.Equal(t, KindLinkedWorktree, r.Kind)
	require.True(t, r.IsLinkedWorktree())
	require.Equal(t, filepath.Join(root, ".session-id"), r.SessionIDFile())
}

func TestResolveNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := Resolve(root)
	require.Error(t, err)
}

func TestPathLayout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".edison"), 0o755))
	r, err := Resolve(root)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, ".project", "tasks", "pending", "T1.md"), r.TaskPath("pending", "T1"))
	require.Equal(t, filepath.Join(root, ".project", "sessions", "S1", "T1", "T1.md"), r.SessionScopedTaskPath("S1", "T1"))
	require.Equal(t, filepath.Join(root, ".edison", "_generated", "audit", "tasks.jsonl"), r.AuditStreamPath("tasks"))
	require.Equal(t, filepath.Join(root, ".project", "qa", "validation-evidence", "T1", "round-2"), r.EvidenceRound("T1", 2))
}
