package task

import (
	"path/filepath"
	"strings"

	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/storage"
)

// indexPath returns the one-line owner pointer file that records which
// session owns a claimed, done or validated task, so callers need not
// scan every session directory. Claim writes it; a failed claim and
// the stale-session sweep clear it. Nothing rebuilds it if it is lost.
func indexPath(resolver *paths.Resolver, taskID string) string {
	return filepath.Join(resolver.GeneratedDir(), "task-owners", taskID+".owner")
}

// RecordOwner persists that sessionID currently owns taskID.
func RecordOwner(resolver *paths.Resolver, taskID, sessionID string) error {
	return storage.WriteTextAtomic(indexPath(resolver, taskID), []byte(sessionID))
}

// LookupOwner returns the session id owning taskID, or "" if unknown
// (e.g. the task was never claimed, or was released back to the global
// pool).
func LookupOwner(resolver *paths.Resolver, taskID string) string {
	data, err := storage.ReadText(indexPath(resolver, taskID))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ClearOwner removes the owner pointer once a task leaves every
// session-scoped state (e.g. returned to the global pool via force-unclaim).
func ClearOwner(resolver *paths.Resolver, taskID string) error {
	return storage.WriteTextAtomic(indexPath(resolver, taskID), []byte(""))
}

// SessionIDLookup adapts LookupOwner to the Backend.SessionID shape.
func SessionIDLookup(resolver *paths.Resolver) func(taskID string) string {
	return func(taskID string) string { return LookupOwner(resolver, taskID) }
}
