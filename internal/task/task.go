// Package task implements the Task entity: its header fields, state
// machine, backend path layout (global pending/ready pool vs.
// session-scoped claimed directory), and the guards that gate
// claim/complete/promote transitions.
package task

import (
	"path/filepath"
	"time"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/paths"
)

const (
	StatusPending   = "pending"
	StatusReady     = "ready"
	StatusClaimed   = "claimed"
	StatusDone      = "done"
	StatusValidated = "validated"
	StatusBlocked   = "blocked"
)

// Task is the concrete Entity for work items (spec.md §3, Data Model T).
type Task struct {
	entity.Header `yaml:",inline"`

	Title       string   `yaml:"title"`
	Preset      string   `yaml:"preset,omitempty"` // explicit override; "" means inferred
	SessionID   string   `yaml:"session_id,omitempty"`
	ClaimedAt   *time.Time `yaml:"claimed_at,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	bodyText    string
}

func (t *Task) Body() string     { return t.bodyText }
func (t *Task) SetBody(b string) { t.bodyText = b }

// New returns a Task ready for entity.DecodeHeader or direct population.
func New() *Task { return &Task{} }

// Machine is the Task state machine, adapted from the teacher's
// taskTransitions map (internal/validation/task.go) and widened with
// the ready/claimed/validated states spec.md §3 adds on top of the
// teacher's four-state pending/in_progress/blocked/completed shape.
var Machine = &entity.StateMachine{
	States: []string{StatusPending, StatusReady, StatusClaimed, StatusDone, StatusValidated, StatusBlocked},
	Transitions: map[string][]string{
		StatusPending: {StatusReady, StatusBlocked},
		StatusReady:   {StatusClaimed, StatusBlocked},
		StatusClaimed: {StatusDone, StatusBlocked, StatusReady}, // StatusReady: released by a stale-session sweep
		StatusDone:    {StatusValidated, StatusClaimed}, // claimed: promotion rejected, kicked back to rework
		StatusBlocked: {StatusPending, StatusReady},
	},
	Terminal: map[string]bool{StatusValidated: true},
}

// Backend implements entity.Backend for tasks: pending/ready/blocked
// live in the global pool; claimed/done/validated live under the
// owning session's directory once a session id is known.
type Backend struct {
	Resolver  *paths.Resolver
	SessionID func(taskID string) string // resolves a task's owning session for claimed-and-later states
}

func (b *Backend) RootFor(state string) string {
	switch state {
	case StatusClaimed, StatusDone, StatusValidated:
		// Session-scoped states have no single root; callers needing a
		// listing across all sessions should use ListAll instead of
		// Repository.List for these states.
		return filepath.Join(b.Resolver.Root, ".project", "sessions")
	default:
		return b.Resolver.TasksDir(state)
	}
}

func (b *Backend) FilePath(id, state string) string {
	switch state {
	case StatusClaimed, StatusDone, StatusValidated:
		sessionID := ""
		if b.SessionID != nil {
			sessionID = b.SessionID(id)
		}
		return b.Resolver.SessionScopedTaskPath(sessionID, id)
	default:
		return b.Resolver.TaskPath(state, id)
	}
}

func (b *Backend) States() []string {
	return []string{StatusClaimed, StatusDone, StatusValidated, StatusPending, StatusReady, StatusBlocked}
}

func (b *Backend) LockPath(id string) string {
	return filepath.Join(b.Resolver.GeneratedDir(), "locks", "tasks", id+".lock")
}

// NewRepository builds a Repository[*Task] wired to a resolver, a
// session-id lookup, and an audit sink.
func NewRepository(resolver *paths.Resolver, sessionIDFor func(taskID string) string, audit entity.AuditFunc) *entity.Repository[*Task] {
	return &entity.Repository[*Task]{
		Backend: &Backend{Resolver: resolver, SessionID: sessionIDFor},
		New:     New,
		Machine: Machine,
		Audit:   audit,
	}
}
