package task

import (
	"fmt"

	"github.com/edison-dev/edison/internal/entity"
)

// DependsOnResolved blocks claim until every depends_on target is
// validated, adapted from the teacher's taskValidator.guardCompleted
// (internal/validation/task.go), generalized from "subtask done" to
// "dependency validated" and from a hard-coded client call to a
// caller-supplied status lookup so internal/task stays free of a
// dependency on internal/graph.
func DependsOnResolved(statusOf func(id string) (string, bool)) entity.Guard {
	return entity.GuardFunc{
		GuardName: "depends-on-resolved",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != StatusClaimed {
				return entity.Pass()
			}
			t, ok := e.(*Task)
			if !ok {
				return entity.Pass()
			}
			var blocked []string
			for _, edge := range t.Relationships {
				if edge.Type != "depends_on" {
					continue
				}
				status, known := statusOf(edge.Target)
				if !known || status != StatusValidated {
					blocked = append(blocked, edge.Target)
				}
			}
			if len(blocked) > 0 {
				return entity.Deny(entity.SeverityHardBlock,
					fmt.Sprintf("blocked by unresolved dependencies: %v", blocked),
					"validate the blocking tasks first, or remove the depends_on edge")
			}
			return entity.Pass()
		},
	}
}

// ChildrenReady blocks promotion of a parent bundle until every child
// task is validated, adapted from the teacher's
// ErrChildrenNotReady/guardCompleted shape. Although its denial is a
// HardBlock, a forced transition skips the check entirely.
func ChildrenReady(childrenOf func(id string) []string, statusOf func(id string) (string, bool)) entity.Guard {
	return entity.GuardFunc{
		GuardName: "children-ready",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != StatusValidated {
				return entity.Pass()
			}
			t, ok := e.(*Task)
			if !ok {
				return entity.Pass()
			}
			if tctx.Force {
				return entity.Pass()
			}
			var notReady []string
			for _, childID := range childrenOf(t.ID) {
				status, known := statusOf(childID)
				if !known || status != StatusValidated {
					notReady = append(notReady, childID)
				}
			}
			if len(notReady) > 0 {
				return entity.Deny(entity.SeverityHardBlock,
					fmt.Sprintf("child tasks not yet validated: %v", notReady),
					"validate all children before promoting the parent")
			}
			return entity.Pass()
		},
	}
}

// RequireEvidence is a soft-blocking guard: completion without any QA
// evidence directory is allowed only with --force, mirroring the
// teacher's severity-scaled guard outcomes (internal/guards/guards.go).
func RequireEvidence(hasEvidence func(taskID string) bool) entity.Guard {
	return entity.GuardFunc{
		GuardName: "require-evidence",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != StatusDone {
				return entity.Pass()
			}
			t, ok := e.(*Task)
			if !ok {
				return entity.Pass()
			}
			if hasEvidence(t.ID) {
				return entity.Pass()
			}
			return entity.Deny(entity.SeveritySoftBlock,
				"no validation evidence recorded for this task yet",
				"run qa validate before marking done, or pass --force")
		},
	}
}
