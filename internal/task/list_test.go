package task

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/entity"
)

func TestListAllIncludesGlobalPoolTasks(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	ready := New()
	ready.ID = "R1"
	ready.Status = StatusReady
	require.NoError(t, repo.Save(ready))

	all, err := ListAll(resolver, repo)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "R1", all[0].ID)
}

func TestListAllDiscoversSessionScopedTasks(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	tsk := New()
	tsk.ID = "T1"
	tsk.Status = StatusReady
	require.NoError(t, repo.Save(tsk))

	require.NoError(t, RecordOwner(resolver, "T1", "S1"))
	_, err := repo.Transition("T1", StatusClaimed, entity.TransitionOpts{Actor: "S1"})
	require.NoError(t, err)

	all, err := ListAll(resolver, repo)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, StatusClaimed, all[0].Status)
}

func TestListAllSkipsDriftedSessionEntries(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	ghost := resolver.SessionScopedDir("S1", "GHOST")
	require.NoError(t, os.MkdirAll(ghost, 0o755))

	all, err := ListAll(resolver, repo)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestToNodesProjectsIDStatusAndRelationships(t *testing.T) {
	tasks := []*Task{
		{Status: StatusReady, Relationships: []entity.Edge{{Type: "depends_on", Target: "X"}}},
	}
	tasks[0].ID = "A"
	nodes := ToNodes(tasks)
	require.Len(t, nodes, 1)
	require.Equal(t, "A", nodes[0].ID)
	require.Equal(t, StatusReady, nodes[0].Status)
	require.Equal(t, "depends_on", nodes[0].Relationships[0].Type)
}
