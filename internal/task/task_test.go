package task

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/paths"
)

func newTestResolver(t *testing.T) *paths.Resolver {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(root+"/.edison", 0o755))
	r, err := paths.Resolve(root)
	require.NoError(t, err)
	return r
}

func TestClaimMovesTaskIntoSessionScope(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	tsk := New()
	tsk.ID = "T1"
	tsk.Status = StatusReady
	require.NoError(t, repo.Save(tsk))

	require.NoError(t, RecordOwner(resolver, "T1", "S1"))
	_, err := repo.Transition("T1", StatusClaimed, entity.TransitionOpts{Actor: "S1"})
	require.NoError(t, err)

	loaded, err := repo.Load("T1")
	require.NoError(t, err)
	require.Equal(t, StatusClaimed, loaded.GetHeader().Status)
}

func TestDependsOnResolvedBlocksClaim(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	tsk := New()
	tsk.ID = "T2"
	tsk.Status = StatusReady
	tsk.Relationships = []entity.Edge{{Type: "depends_on", Target: "T1"}}
	require.NoError(t, repo.Save(tsk))

	guard := DependsOnResolved(func(id string) (string, bool) { return StatusPending, true })
	_, err := repo.Transition("T2", StatusClaimed, entity.TransitionOpts{Guards: []entity.Guard{guard}})
	require.Error(t, err)

	var blockErr *edisonerr.TransitionBlocked
	require.ErrorAs(t, err, &blockErr)
}

func TestDependsOnResolvedAllowsClaimWhenValidated(t *testing.T) {
	resolver := newTestResolver(t)
	repo := NewRepository(resolver, SessionIDLookup(resolver), nil)

	tsk := New()
	tsk.ID = "T3"
	tsk.Status = StatusReady
	tsk.Relationships = []entity.Edge{{Type: "depends_on", Target: "T1"}}
	require.NoError(t, repo.Save(tsk))

	guard := DependsOnResolved(func(id string) (string, bool) { return StatusValidated, true })
	_, err := repo.Transition("T3", StatusClaimed, entity.TransitionOpts{Guards: []entity.Guard{guard}})
	require.NoError(t, err)
}
