// Package paths resolves logical Edison identities (repo root, worktree
// kind, session-scoped record locations) into filesystem paths. It fails
// closed when the repository structure is ambiguous, per spec.md §4.1.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edison-dev/edison/internal/edisonerr"
)

const (
	edisonDir  = ".edison"
	projectDir = ".project"
)

// Kind distinguishes the primary checkout from a linked git worktree.
type Kind int

const (
	KindPrimary Kind = iota
	KindLinkedWorktree
)

// Resolver holds the repository layout once discovered, so every other
// component can ask for a path without re-walking the filesystem.
type Resolver struct {
	Root string
	Kind Kind
}

// Resolve walks up from start looking for a ".edison" directory. It fails
// closed (returns edisonerr.NotFound) rather than guessing.
func Resolve(start string) (*Resolver, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, edisonerr.IOError(start, err)
	}

	dir := abs
	for {
		if info, statErr := os.Stat(filepath.Join(dir, edisonDir)); statErr == nil && info.IsDir() {
			kind, kindErr := classifyWorktree(dir)
			if kindErr != nil {
				return nil, kindErr
			}
			return &Resolver{Root: dir, Kind: kind}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, edisonerr.NotFound(start, fmt.Sprintf("no %s directory found in any ancestor of %s", edisonDir, start))
		}
		dir = parent
	}
}

// classifyWorktree distinguishes the primary checkout from a linked
// worktree using git metadata: in the primary checkout ".git" is a
// directory; in a linked worktree it is a file containing "gitdir: ...".
func classifyWorktree(root string) (Kind, error) {
	gitPath := filepath.Join(root, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		// No .git at all (e.g. a bare project dir in tests) — treat as primary.
		return KindPrimary, nil
	}
	if info.IsDir() {
		return KindPrimary, nil
	}
	return KindLinkedWorktree, nil
}

// IsLinkedWorktree reports whether .session-id should be consulted.
// Spec.md §4.1: ".session-id" is consulted ONLY in linked worktrees; in
// the primary checkout it MUST be ignored.
func (r *Resolver) IsLinkedWorktree() bool {
	return r.Kind == KindLinkedWorktree
}

// SessionIDFile returns the path to the worktree-local session-id hint
// file. Callers MUST gate reads on IsLinkedWorktree.
func (r *Resolver) SessionIDFile() string {
	return filepath.Join(r.Root, ".session-id")
}

// TasksDir returns the root for unclaimed tasks in the given state.
func (r *Resolver) TasksDir(state string) string {
	return filepath.Join(r.Root, projectDir, "tasks", state)
}

// TaskPath returns the canonical path for an unclaimed task file.
func (r *Resolver) TaskPath(state, id string) string {
	return filepath.Join(r.TasksDir(state), id+".md")
}

// SessionScopedDir returns the directory holding a claimed task's records
// for the given session.
func (r *Resolver) SessionScopedDir(sessionID, taskID string) string {
	return filepath.Join(r.Root, projectDir, "sessions", sessionID, taskID)
}

// SessionScopedTaskPath returns the file path for a task claimed within a session.
func (r *Resolver) SessionScopedTaskPath(sessionID, taskID string) string {
	return filepath.Join(r.SessionScopedDir(sessionID, taskID), taskID+".md")
}

// SessionsDir returns the root directory for all session-scoped records.
func (r *Resolver) SessionsDir() string {
	return filepath.Join(r.Root, projectDir, "sessions")
}

// SessionDir returns the directory holding a session's own record and bookkeeping.
func (r *Resolver) SessionDir(sessionID string) string {
	return filepath.Join(r.SessionsDir(), sessionID)
}

// SessionRecordPath returns the path to a session's own entity file.
func (r *Resolver) SessionRecordPath(sessionID string) string {
	return filepath.Join(r.SessionDir(sessionID), "session.md")
}

// EvidenceRoot returns the validation-evidence root for a task.
func (r *Resolver) EvidenceRoot(taskID string) string {
	return filepath.Join(r.Root, projectDir, "qa", "validation-evidence", taskID)
}

// EvidenceRound returns the evidence directory for one validation round.
func (r *Resolver) EvidenceRound(taskID string, round int) string {
	return filepath.Join(r.EvidenceRoot(taskID), fmt.Sprintf("round-%d", round))
}

// QARecordsDir returns the directory holding QA record entity files for a state.
func (r *Resolver) QARecordsDir(state string) string {
	return filepath.Join(r.Root, projectDir, "qa", "records", state)
}

// QARecordPath returns the canonical path for a QA record file.
func (r *Resolver) QARecordPath(state, taskID string) string {
	return filepath.Join(r.QARecordsDir(state), taskID+"-qa.md")
}

// AuditStreamPath returns the path to a named append-only JSONL stream.
func (r *Resolver) AuditStreamPath(stream string) string {
	return filepath.Join(r.Root, edisonDir, "_generated", "audit", stream+".jsonl")
}

// ConfigDir returns the project configuration directory.
func (r *Resolver) ConfigDir() string {
	return filepath.Join(r.Root, edisonDir, "config")
}

// OverlaysDir returns the project overlay directory for composition (C7).
func (r *Resolver) OverlaysDir() string {
	return filepath.Join(r.Root, edisonDir, "overlays")
}

// PacksDir returns the root directory holding enabled packs.
func (r *Resolver) PacksDir() string {
	return filepath.Join(r.Root, edisonDir, "packs")
}

// VendorsDir returns the root directory holding vendor checkouts.
func (r *Resolver) VendorsDir() string {
	return filepath.Join(r.Root, edisonDir, "vendors")
}

// GeneratedDir returns the root of derived, never-hand-edited artifacts.
func (r *Resolver) GeneratedDir() string {
	return filepath.Join(r.Root, edisonDir, "_generated")
}
