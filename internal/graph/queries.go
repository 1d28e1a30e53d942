package graph

import (
	"sort"

	"github.com/edison-dev/edison/internal/entity"
)

// Node is the minimal shape queries need from any entity: its id,
// status, and relationship edges.
type Node struct {
	ID            string
	Status        string
	Relationships []entity.Edge
}

// Index is an in-memory snapshot of nodes, built by the caller with
// BuildIndex (the CLI feeds it task.ListAll through task.ToNodes) and
// used by the pure query functions below. The queries never re-read
// entity files, so one Index can serve any number of queries.
type Index struct {
	byID map[string]Node
}

// BuildIndex indexes nodes by id, last write wins on duplicate ids.
func BuildIndex(nodes []Node) *Index {
	idx := &Index{byID: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		idx.byID[n.ID] = n
	}
	return idx
}

func (idx *Index) Get(id string) (Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// PrereqsSatisfied reports whether every depends_on target of id is in
// a "done" status, per the caller-supplied predicate (different
// entity kinds have different terminal-status names).
func (idx *Index) PrereqsSatisfied(id string, isDone func(status string) bool) (bool, []string) {
	n, ok := idx.Get(id)
	if !ok {
		return false, nil
	}
	var blocked []string
	for _, e := range n.Relationships {
		if e.Type != "depends_on" {
			continue
		}
		dep, ok := idx.Get(e.Target)
		if !ok || !isDone(dep.Status) {
			blocked = append(blocked, e.Target)
		}
	}
	return len(blocked) == 0, blocked
}

// ReadyTasks returns every node whose status equals readyStatus and
// whose prerequisites are all satisfied.
func (idx *Index) ReadyTasks(readyStatus string, isDone func(status string) bool) []string {
	var ready []string
	for id, n := range idx.byID {
		if n.Status != readyStatus {
			continue
		}
		if ok, _ := idx.PrereqsSatisfied(id, isDone); ok {
			ready = append(ready, id)
		}
	}
	return ready
}

// Descendants walks "child" edges transitively from id (exclusive).
func (idx *Index) Descendants(id string) []string {
	visited := map[string]bool{id: true}
	var out []string
	var walk func(current string)
	walk = func(current string) {
		n, ok := idx.Get(current)
		if !ok {
			return
		}
		for _, e := range n.Relationships {
			if e.Type != "child" || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			out = append(out, e.Target)
			walk(e.Target)
		}
	}
	walk(id)
	return out
}

// BundleMembers returns the full hierarchy closure for id: id itself
// plus every descendant, used to build a QA validation cluster for
// the "hierarchy" scope (spec.md §6.5 / SPEC_FULL.md §6.5).
func (idx *Index) BundleMembers(id string) []string {
	return append([]string{id}, idx.Descendants(id)...)
}

// BundleRootOf returns the root id stored in member's own bundle_root
// edge, if it has one. Membership is recorded one-directionally on
// the member (spec.md §3), so this is how a caller who passed a
// non-root id derives the actual root (C5.2).
func (idx *Index) BundleRootOf(member string) (string, bool) {
	n, ok := idx.Get(member)
	if !ok {
		return "", false
	}
	for _, e := range n.Relationships {
		if e.Type == "bundle_root" {
			return e.Target, true
		}
	}
	return "", false
}

// TasksWithBundleRoot returns every task whose bundle_root edge points
// at root, i.e. root's validation-bundle members excluding root
// itself.
func (idx *Index) TasksWithBundleRoot(root string) []string {
	var members []string
	for id, n := range idx.byID {
		if id == root {
			continue
		}
		for _, e := range n.Relationships {
			if e.Type == "bundle_root" && e.Target == root {
				members = append(members, id)
				break
			}
		}
	}
	sort.Strings(members)
	return members
}
