package task

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/graph"
)

func TestRepoStoreRoundTripsRelationships(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)
	store := &RepoStore{Repo: repo}

	parent := New()
	parent.ID = "P"
	parent.Status = StatusReady
	require.NoError(t, repo.Save(parent))

	child := New()
	child.ID = "C"
	child.Status = StatusReady
	require.NoError(t, repo.Save(child))

	require.NoError(t, graph.Add(store, "C", "parent", "P"))

	edges, err := store.Relationships("C")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "parent", edges[0].Type)
	require.Equal(t, "P", edges[0].Target)

	parentEdges, err := store.Relationships("P")
	require.NoError(t, err)
	require.Len(t, parentEdges, 1)
	require.Equal(t, "child", parentEdges[0].Type)
	require.Equal(t, "C", parentEdges[0].Target)
}

func TestRepoStoreLockPathMatchesBackend(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)
	store := &RepoStore{Repo: repo}
	require.Equal(t, repo.Backend.LockPath("T1"), store.LockPath("T1"))
}

func TestRepoStoreSetRelationshipsPersists(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)
	store := &RepoStore{Repo: repo}

	tsk := New()
	tsk.ID = "A"
	tsk.Status = StatusReady
	require.NoError(t, repo.Save(tsk))

	require.NoError(t, store.SetRelationships("A", []entity.Edge{{Type: "related", Target: "B"}}))

	loaded, err := repo.Load("A")
	require.NoError(t, err)
	require.Equal(t, []entity.Edge{{Type: "related", Target: "B"}}, loaded.Relationships)
}
