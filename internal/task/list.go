package task

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/graph"
	"github.com/edison-dev/edison/internal/paths"
)

// ListAll loads every task regardless of state: the global pool
// (pending/ready/blocked) is listed directly, while claimed/done/
// validated tasks live under per-session directories the repository's
// Backend can't enumerate without a session id, so their ids are
// discovered by walking the sessions tree once and loaded through the
// owner index (internal/task/index.go) Load already consults.
func ListAll(resolver *paths.Resolver, repo *entity.Repository[*Task]) ([]*Task, error) {
	ids := map[string]bool{}

	for _, state := range []string{StatusPending, StatusReady, StatusBlocked} {
		tasks, err := repo.List(state)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			ids[t.ID] = true
		}
	}

	sessionDirs, err := os.ReadDir(resolver.SessionsDir())
	if err == nil {
		for _, sd := range sessionDirs {
			if !sd.IsDir() {
				continue
			}
			taskDirs, err := os.ReadDir(filepath.Join(resolver.SessionsDir(), sd.Name()))
			if err != nil {
				continue
			}
			for _, td := range taskDirs {
				if td.IsDir() {
					ids[td.Name()] = true
				}
			}
		}
	}

	out := make([]*Task, 0, len(ids))
	for id := range ids {
		t, err := repo.Load(id)
		if err != nil {
			continue // index/state drifted out from under us; skip rather than fail the whole listing
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ToNodes projects tasks into graph.Node for graph.BuildIndex, the
// shape every C3/C5 query (readiness, cluster resolution) runs over.
func ToNodes(tasks []*Task) []graph.Node {
	nodes := make([]graph.Node, len(tasks))
	for i, t := range tasks {
		nodes[i] = graph.Node{ID: t.ID, Status: t.Status, Relationships: t.Relationships}
	}
	return nodes
}
