package entity

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/storage"
)

// Backend tells a Repository where a given entity id's file lives for
// a given state, so tasks and sessions can share one engine with two
// different directory layouts (spec.md §6.2).
type Backend interface {
	// RootFor returns the directory holding entities in state.
	RootFor(state string) string
	// FilePath returns the full path for id within state.
	FilePath(id, state string) string
	// States lists every state the backend knows how to store, in the
	// order Load should search them.
	States() []string
	// LockPath returns the path of the advisory lock file guarding
	// mutations to id, independent of its current state (so a
	// concurrent transition can't race a move between directories).
	LockPath(id string) string
}

// AuditFunc appends one transition event; wired to internal/audit by
// callers, kept as a function value here to avoid an import cycle.
type AuditFunc func(event TransitionEvent) error

// TransitionEvent is the audit-stream record for one Transition call.
type TransitionEvent struct {
	EntityID  string    `json:"entity_id"`
	EntityType string   `json:"entity_type"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Forced    bool      `json:"forced"`
	Timestamp time.Time `json:"timestamp"`
}

// Repository is a generic, file-backed CRUD + transition engine for
// one entity kind. T must be a pointer type implementing Entity.
type Repository[T Entity] struct {
	Backend Backend
	New     func() T // returns a zero-value instance ready for DecodeHeader
	Machine *StateMachine
	Audit   AuditFunc
}

// Load finds id across every state the backend knows about and
// decodes it. Returns edisonerr.NotFound if no state has it.
func (r *Repository[T]) Load(id string) (T, error) {
	var zero T
	for _, state := range r.Backend.States() {
		path := r.Backend.FilePath(id, state)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		e, err := r.loadPath(path)
		if err != nil {
			return zero, err
		}
		return e, nil
	}
	return zero, edisonerr.NotFound(id, "entity not found in any known state directory")
}

func (r *Repository[T]) loadPath(path string) (T, error) {
	var zero T
	raw, err := storage.ReadText(path)
	if err != nil {
		return zero, err
	}
	headerYAML, body, err := SplitFrontmatter(raw)
	if err != nil {
		return zero, err
	}
	e := r.New()
	if err := DecodeHeader(headerYAML, e); err != nil {
		return zero, err
	}
	e.SetBody(body)
	return e, nil
}

// Save writes e to its current state's path atomically.
func (r *Repository[T]) Save(e T) error {
	h := e.GetHeader()
	path := r.Backend.FilePath(h.ID, h.Status)
	headerYAML, err := EncodeHeader(e)
	if err != nil {
		return err
	}
	return storage.WriteTextAtomic(path, JoinFrontmatter(headerYAML, e.Body()))
}

// List decodes every entity file under state's root.
func (r *Repository[T]) List(state string) ([]T, error) {
	root := r.Backend.RootFor(state)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, edisonerr.IOError(root, err)
	}

	var out []T
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		e, err := r.loadPath(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// TransitionOpts configures one Transition call.
type TransitionOpts struct {
	Force bool
	Actor string
	Extra map[string]any
	Guards []Guard
}

// Transition loads id under an exclusive lock, validates and
// guard-checks the from->to move, and on success mutates state,
// relocates the file if the backend's path is state-dependent, and
// appends one audit event — all before releasing the lock. On
// any guard denial or validation failure the file on disk is left
// completely untouched (spec.md §6.2).
func (r *Repository[T]) Transition(id, to string, opts TransitionOpts) ([]*GuardResult, error) {
	var advisories []*GuardResult
	var outerErr error

	lockErr := storage.WithLock(r.Backend.LockPath(id), func() error {
		e, err := r.Load(id)
		if err != nil {
			outerErr = err
			return nil
		}
		h := e.GetHeader()
		from := h.Status

		if err := r.Machine.ValidateTransition(from, to); err != nil {
			outerErr = err
			return nil
		}

		tctx := &TransitionContext{Force: opts.Force, Actor: opts.Actor, Extra: opts.Extra}
		results, err := RunGuards(opts.Guards, e, from, to, tctx)
		advisories = results
		if err != nil {
			outerErr = err
			return nil
		}

		oldPath := r.Backend.FilePath(h.ID, from)
		now := timeNow()
		h.Status = to
		h.UpdatedAt = now

		newPath := r.Backend.FilePath(h.ID, to)
		headerYAML, err := EncodeHeader(e)
		if err != nil {
			outerErr = err
			return nil
		}
		if err := storage.WriteTextAtomic(newPath, JoinFrontmatter(headerYAML, e.Body())); err != nil {
			outerErr = err
			return nil
		}
		if newPath != oldPath {
			_ = os.Remove(oldPath)
		}

		if r.Audit != nil {
			_ = r.Audit(TransitionEvent{
				EntityID:   h.ID,
				EntityType: h.Type,
				From:       from,
				To:         to,
				Actor:      opts.Actor,
				Forced:     opts.Force,
				Timestamp:  now,
			})
		}
		return nil
	})
	if lockErr != nil {
		return nil, lockErr
	}
	return advisories, outerErr
}

// timeNow is a seam so tests can override the clock if ever needed;
// production code always calls time.Now.
var timeNow = time.Now
