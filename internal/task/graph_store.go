package task

import (
	"github.com/edison-dev/edison/internal/entity"
)

// RepoStore adapts a Repository[*Task] to graph.Store, so
// graph.Add/Remove can mutate relationship edges on task files while
// reusing the same per-id lock path the state machine uses for
// transitions (spec.md §4.3: edge writes and transitions on the same
// entity never race each other).
type RepoStore struct {
	Repo *entity.Repository[*Task]
}

func (s *RepoStore) Relationships(id string) ([]entity.Edge, error) {
	t, err := s.Repo.Load(id)
	if err != nil {
		return nil, err
	}
	return t.Relationships, nil
}

func (s *RepoStore) SetRelationships(id string, edges []entity.Edge) error {
	t, err := s.Repo.Load(id)
	if err != nil {
		return err
	}
	t.Relationships = edges
	return s.Repo.Save(t)
}

func (s *RepoStore) LockPath(id string) string {
	return s.Repo.Backend.LockPath(id)
}
