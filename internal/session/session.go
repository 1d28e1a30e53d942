// Package session implements the Session entity and its lifecycle:
// creation, liveness touches, staleness detection, and recovery sweep.
package session

import (
	"path/filepath"
	"time"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/paths"
)

const (
	StatusActive = "active"
	StatusStale  = "stale"
	StatusClosed = "closed"
)

// Session is the concrete Entity tracking one agent's claim on the
// repository (spec.md Data Model S).
type Session struct {
	entity.Header `yaml:",inline"`

	Actor            string    `yaml:"actor"`
	WorktreePath     string    `yaml:"worktree_path"`
	LastTouchAt      time.Time `yaml:"last_touch_at"`
	ClaimedTasks     []string  `yaml:"claimed_tasks,omitempty"`
	ContinuationMode string    `yaml:"continuation_mode,omitempty"` // "" | off | soft | hard, session-level override (spec.md §4.4)
	bodyText         string
}

func (s *Session) Body() string     { return s.bodyText }
func (s *Session) SetBody(b string) { s.bodyText = b }

func New() *Session { return &Session{} }

var Machine = &entity.StateMachine{
	States: []string{StatusActive, StatusStale, StatusClosed},
	Transitions: map[string][]string{
		StatusActive: {StatusStale, StatusClosed},
		StatusStale:  {StatusActive, StatusClosed},
		StatusClosed: {},
	},
	Terminal: map[string]bool{StatusClosed: true},
}

// Backend implements entity.Backend for sessions: every state lives
// directly under the session's own directory (no state-based move),
// since a session's path is keyed only by its id.
type Backend struct {
	Resolver *paths.Resolver
}

func (b *Backend) RootFor(state string) string { return b.Resolver.SessionsDir() }
func (b *Backend) FilePath(id, state string) string {
	return b.Resolver.SessionRecordPath(id)
}
func (b *Backend) States() []string { return []string{StatusActive, StatusStale, StatusClosed} }
func (b *Backend) LockPath(id string) string {
	return filepath.Join(b.Resolver.GeneratedDir(), "locks", "sessions", id+".lock")
}

func NewRepository(resolver *paths.Resolver, audit entity.AuditFunc) *entity.Repository[*Session] {
	return &entity.Repository[*Session]{
		Backend: &Backend{Resolver: resolver},
		New:     New,
		Machine: Machine,
		Audit:   audit,
	}
}

// Create persists a brand-new active session record.
func Create(repo *entity.Repository[*Session], id, actor, worktreePath string) (*Session, error) {
	s := New()
	s.ID = id
	s.Type = "session"
	s.Status = StatusActive
	s.Actor = actor
	s.WorktreePath = worktreePath
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.LastTouchAt = now
	if err := repo.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Touch refreshes LastTouchAt and, if the session had gone stale,
// transitions it back to active.
func Touch(repo *entity.Repository[*Session], id string) error {
	s, err := repo.Load(id)
	if err != nil {
		return err
	}
	s.LastTouchAt = time.Now()
	s.UpdatedAt = s.LastTouchAt
	if err := repo.Save(s); err != nil {
		return err
	}
	if s.Status == StatusStale {
		if _, err := repo.Transition(id, StatusActive, entity.TransitionOpts{}); err != nil {
			return err
		}
	}
	return nil
}

// AddClaimedTask records that the session now owns taskID, called
// alongside task.RecordOwner when a claim succeeds.
func AddClaimedTask(repo *entity.Repository[*Session], sessionID, taskID string) error {
	s, err := repo.Load(sessionID)
	if err != nil {
		return err
	}
	for _, id := range s.ClaimedTasks {
		if id == taskID {
			return nil
		}
	}
	s.ClaimedTasks = append(s.ClaimedTasks, taskID)
	return repo.Save(s)
}

// RemoveClaimedTask drops taskID from the session's claim list, called
// when the task is promoted (done->validated). The validated task file
// stays under the session's directory.
func RemoveClaimedTask(repo *entity.Repository[*Session], sessionID, taskID string) error {
	s, err := repo.Load(sessionID)
	if err != nil {
		return err
	}
	out := s.ClaimedTasks[:0]
	for _, id := range s.ClaimedTasks {
		if id != taskID {
			out = append(out, id)
		}
	}
	s.ClaimedTasks = out
	return repo.Save(s)
}

// SetContinuationMode sets or clears (mode == "") the session-level
// continuation override consumed by continuation.Inputs.SessionOverride.
func SetContinuationMode(repo *entity.Repository[*Session], sessionID, mode string) error {
	s, err := repo.Load(sessionID)
	if err != nil {
		return err
	}
	s.ContinuationMode = mode
	return repo.Save(s)
}

// IsStale reports whether s has been silent longer than threshold.
func IsStale(s *Session, threshold time.Duration, now time.Time) bool {
	return s.Status != StatusClosed && now.Sub(s.LastTouchAt) > threshold
}

// Resume reactivates a stale session, meant to be called when a
// worktree that owns it starts doing work again.
func Resume(repo *entity.Repository[*Session], id string) error {
	s, err := repo.Load(id)
	if err != nil {
		return err
	}
	if s.Status != StatusStale {
		return Touch(repo, id)
	}
	_, err = repo.Transition(id, StatusActive, entity.TransitionOpts{})
	return err
}
