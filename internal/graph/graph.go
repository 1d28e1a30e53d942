// Package graph operates on the relationship edges embedded in each
// entity's header (spec.md §4.3). There is no separate graph store:
// the graph is an in-memory index built by scanning entity files, and
// mutations apply directly to the owning entities' Relationships
// slices through a supplied load/save pair.
package graph

import (
	"sort"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/storage"
)

// inverse maps a relationship type to its reverse-direction type.
// Symmetric types map to themselves. "bundle_root" has no inverse: it
// is stored one-directionally on the member, pointing at the root
// (spec.md §3/§4.3's relationship table lists its inverse as "none").
var inverse = map[string]string{
	"depends_on":  "blocks",
	"blocks":      "depends_on",
	"parent":      "child",
	"child":       "parent",
	"related":     "related",
	"bundle_root": "",
}

// Inverse returns the reverse relationship type for t, or "" if t is
// not a recognized relationship type.
func Inverse(t string) string { return inverse[t] }

// LockPathFunc resolves the advisory-lock path for an entity id, shared
// with the owning repository's Backend.LockPath so Add/Remove never
// race a concurrent Transition.
type LockPathFunc func(id string) string

// Store is the minimal entity access graph.Add/Remove need: load,
// mutate Relationships, save, under the caller's own lock path
// convention. It is satisfied by a thin adapter over
// entity.Repository[T] for each concrete entity kind.
type Store interface {
	Relationships(id string) ([]entity.Edge, error)
	SetRelationships(id string, edges []entity.Edge) error
	LockPath(id string) string
}

// Add creates a symmetric/inverse edge pair between a and b atomically
// from the caller's point of view: both sides are locked in a stable
// order (lexicographically smaller id first) to prevent deadlock
// against a concurrent Add(b, a, ...).
func Add(store Store, a, relType, b string) error {
	if a == b {
		return edisonerr.New(edisonerr.KindValidationError, a, "self-edges are not allowed")
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	return storage.WithLock(store.LockPath(first), func() error {
		return storage.WithLock(store.LockPath(second), func() error {
			if err := addOneSide(store, a, relType, b); err != nil {
				return err
			}
			revType := Inverse(relType)
			if revType == "" {
				return nil
			}
			if err := addOneSide(store, b, revType, a); err != nil {
				// best-effort rollback of the first side
				_ = removeOneSide(store, a, relType, b)
				return edisonerr.IntegrityError(a, "failed to add inverse edge, rolled back forward edge", err)
			}
			return nil
		})
	})
}

// Remove deletes a relationship pair under the same lock ordering as Add.
func Remove(store Store, a, relType, b string) error {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	return storage.WithLock(store.LockPath(first), func() error {
		return storage.WithLock(store.LockPath(second), func() error {
			if err := removeOneSide(store, a, relType, b); err != nil {
				return err
			}
			if revType := Inverse(relType); revType != "" {
				if err := removeOneSide(store, b, revType, a); err != nil {
					// best-effort restore of the first side
					_ = addOneSide(store, a, relType, b)
					return edisonerr.IntegrityError(a, "failed to remove inverse edge, restored forward edge", err)
				}
			}
			return nil
		})
	})
}

// SetBundleRoot records that member belongs to root's validation
// bundle (spec.md §3: "at most one bundle_root per task"). Any
// existing bundle_root edge on member is replaced rather than
// accumulated, enforcing the invariant on every write instead of
// rejecting a second bundle add outright.
func SetBundleRoot(store Store, member, root string) error {
	if member == root {
		return edisonerr.New(edisonerr.KindValidationError, member, "a task cannot be its own bundle root")
	}
	return storage.WithLock(store.LockPath(member), func() error {
		edges, err := store.Relationships(member)
		if err != nil {
			return err
		}
		out := edges[:0]
		for _, e := range edges {
			if e.Type != "bundle_root" {
				out = append(out, e)
			}
		}
		out = append(out, entity.Edge{Type: "bundle_root", Target: root})
		return store.SetRelationships(member, Normalize(out))
	})
}

// ClearBundleRoot removes member's bundle_root edge, if any.
func ClearBundleRoot(store Store, member string) error {
	return storage.WithLock(store.LockPath(member), func() error {
		edges, err := store.Relationships(member)
		if err != nil {
			return err
		}
		out := edges[:0]
		for _, e := range edges {
			if e.Type != "bundle_root" {
				out = append(out, e)
			}
		}
		return store.SetRelationships(member, out)
	})
}

func addOneSide(store Store, id, relType, target string) error {
	edges, err := store.Relationships(id)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if e.Type == relType && e.Target == target {
			return nil // already present
		}
	}
	edges = append(edges, entity.Edge{Type: relType, Target: target})
	return store.SetRelationships(id, Normalize(edges))
}

func removeOneSide(store Store, id, relType, target string) error {
	edges, err := store.Relationships(id)
	if err != nil {
		return err
	}
	out := edges[:0]
	for _, e := range edges {
		if e.Type == relType && e.Target == target {
			continue
		}
		out = append(out, e)
	}
	return store.SetRelationships(id, out)
}

// Normalize dedupes and sorts a relationship slice deterministically
// so two saves of logically identical edge sets are byte-identical on
// disk. It does not check for self-edges; Add and SetBundleRoot reject
// those before any edge is written.
func Normalize(edges []entity.Edge) []entity.Edge {
	seen := map[entity.Edge]bool{}
	out := make([]entity.Edge, 0, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Target < out[j].Target
	})
	return out
}
