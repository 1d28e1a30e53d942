package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/entity"
)

// memStore is an in-memory Store used only for testing Add/Remove.
type memStore struct {
	mu    sync.Mutex
	edges map[string][]entity.Edge
}

func newMemStore() *memStore { return &memStore{edges: map[string][]entity.Edge{}} }

func (m *memStore) Relationships(id string) ([]entity.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Edge{}, m.edges[id]...), nil
}

func (m *memStore) SetRelationships(id string, edges []entity.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[id] = edges
	return nil
}

func (m *memStore) LockPath(id string) string { return id }

func TestAddCreatesInverseEdge(t *testing.T) {
	store := newMemStore()
	require.NoError(t, Add(store, "T1", "depends_on", "T2"))

	fwd, _ := store.Relationships("T1")
	require.Equal(t, []entity.Edge{{Type: "depends_on", Target: "T2"}}, fwd)

	rev, _ := store.Relationships("T2")
	require.Equal(t, []entity.Edge{{Type: "blocks", Target: "T1"}}, rev)
}

func TestAddIsIdempotent(t *testing.T) {
	store := newMemStore()
	require.NoError(t, Add(store, "T1", "related", "T2"))
	require.NoError(t, Add(store, "T1", "related", "T2"))

	fwd, _ := store.Relationships("T1")
	require.Len(t, fwd, 1)
}

func TestAddRejectsSelfEdge(t *testing.T) {
	store := newMemStore()
	require.Error(t, Add(store, "T1", "related", "T1"))
}

func TestRemoveClearsBothSides(t *testing.T) {
	store := newMemStore()
	require.NoError(t, Add(store, "T1", "parent", "T2"))
	require.NoError(t, Remove(store, "T1", "parent", "T2"))

	fwd, _ := store.Relationships("T1")
	require.Empty(t, fwd)
	rev, _ := store.Relationships("T2")
	require.Empty(t, rev)
}

func TestReadyTasksRequiresPrereqsSatisfied(t *testing.T) {
	idx := BuildIndex([]Node{
		{ID: "T1", Status: "ready", Relationships: []entity.Edge{{Type: "depends_on", Target: "T2"}}},
		{ID: "T2", Status: "pending"},
		{ID: "T3", Status: "ready"},
	})
	isDone := func(s string) bool { return s == "validated" }

	ready := idx.ReadyTasks("ready", isDone)
	require.ElementsMatch(t, []string{"T3"}, ready)
}

func TestSetBundleRootStoresOneDirectionalEdge(t *testing.T) {
	store := newMemStore()
	require.NoError(t, SetBundleRoot(store, "B", "A"))

	member, _ := store.Relationships("B")
	require.Equal(t, []entity.Edge{{Type: "bundle_root", Target: "A"}}, member)

	root, _ := store.Relationships("A")
	require.Empty(t, root)
}

func TestSetBundleRootEnforcesAtMostOnePerTask(t *testing.T) {
	store := newMemStore()
	require.NoError(t, SetBundleRoot(store, "B", "A"))
	require.NoError(t, SetBundleRoot(store, "B", "X"))

	member, _ := store.Relationships("B")
	require.Equal(t, []entity.Edge{{Type: "bundle_root", Target: "X"}}, member)
}

func TestSetBundleRootRejectsSelfReference(t *testing.T) {
	store := newMemStore()
	require.Error(t, SetBundleRoot(store, "A", "A"))
}

func TestClearBundleRootRemovesEdge(t *testing.T) {
	store := newMemStore()
	require.NoError(t, SetBundleRoot(store, "B", "A"))
	require.NoError(t, ClearBundleRoot(store, "B"))

	member, _ := store.Relationships("B")
	require.Empty(t, member)
}

func TestTasksWithBundleRootFindsMembersByEdge(t *testing.T) {
	idx := BuildIndex([]Node{
		{ID: "A"},
		{ID: "B", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
		{ID: "C", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
		{ID: "D", Relationships: []entity.Edge{{Type: "bundle_root", Target: "OTHER"}}},
	})
	require.ElementsMatch(t, []string{"B", "C"}, idx.TasksWithBundleRoot("A"))
}

func TestBundleRootOfDerivesRootFromMember(t *testing.T) {
	idx := BuildIndex([]Node{
		{ID: "B", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
	})
	root, ok := idx.BundleRootOf("B")
	require.True(t, ok)
	require.Equal(t, "A", root)
}

func TestBundleMembersWalksChildEdges(t *testing.T) {
	idx := BuildIndex([]Node{
		{ID: "Parent", Relationships: []entity.Edge{{Type: "child", Target: "C1"}, {Type: "child", Target: "C2"}}},
		{ID: "C1", Relationships: []entity.Edge{{Type: "child", Target: "C1a"}}},
		{ID: "C1a"},
		{ID: "C2"},
	})

	members := idx.BundleMembers("Parent")
	require.ElementsMatch(t, []string{"Parent", "C1", "C2", "C1a"}, members)
}
