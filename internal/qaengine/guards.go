package qaengine

import (
	"fmt"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/task"
)

// HasBundleApproval hard-blocks promotion of a task to "validated"
// unless its most recent bundle validation round passed.
func HasBundleApproval(latestRound func(taskID string) (*BundleSummary, bool)) entity.Guard {
	return entity.GuardFunc{
		GuardName: "has-bundle-approval",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != task.StatusValidated {
				return entity.Pass()
			}
			t, ok := e.(*task.Task)
			if !ok {
				return entity.Pass()
			}
			summary, found := latestRound(t.ID)
			if !found || !summary.Passed {
				return entity.Deny(entity.SeverityHardBlock,
					"no passing bundle validation round on record",
					"run qa validate for this task's cluster before promoting")
			}
			return entity.Pass()
		},
	}
}

// HasRequiredEvidence hard-blocks promotion when a preset's declared
// required_evidence files are missing from the task's evidence round.
func HasRequiredEvidence(evidenceFiles func(taskID string) []string, requiredFor func(taskID string) []string) entity.Guard {
	return entity.GuardFunc{
		GuardName: "has-required-evidence",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != task.StatusValidated {
				return entity.Pass()
			}
			t, ok := e.(*task.Task)
			if !ok {
				return entity.Pass()
			}
			present := toSet(evidenceFiles(t.ID))
			var missing []string
			for _, required := range requiredFor(t.ID) {
				if !present[required] {
					missing = append(missing, required)
				}
			}
			if len(missing) > 0 {
				return entity.Deny(entity.SeverityHardBlock,
					fmt.Sprintf("missing required evidence: %v", missing),
					"attach the missing evidence files to the current validation round")
			}
			return entity.Pass()
		},
	}
}

// HasAllWavesPassed soft-blocks promotion when an optional validation
// wave (a non-required but configured extra validator) ran and did not
// pass, overridable with --force since it is advisory rather than
// load-bearing for correctness. A wave that has not run does not block.
func HasAllWavesPassed(waveStatus func(taskID string) (ran, passed bool)) entity.Guard {
	return entity.GuardFunc{
		GuardName: "has-all-waves-passed",
		Fn: func(e entity.Entity, from, to string, tctx *entity.TransitionContext) *entity.GuardResult {
			if to != task.StatusValidated {
				return entity.Pass()
			}
			t, ok := e.(*task.Task)
			if !ok {
				return entity.Pass()
			}
			ran, passed := waveStatus(t.ID)
			if ran && !passed {
				return entity.Deny(entity.SeveritySoftBlock,
					"an optional validation wave ran and did not pass",
					"resolve the wave's findings, or pass --force to promote anyway")
			}
			return entity.Pass()
		},
	}
}

// PromotionGuards assembles the fixed guard order run on every
// done->validated transition, mirroring the teacher's ArchiveGuards()
// constructor style (internal/guards/checks.go).
func PromotionGuards(
	latestRound func(taskID string) (*BundleSummary, bool),
	evidenceFiles func(taskID string) []string,
	requiredFor func(taskID string) []string,
	waveStatus func(taskID string) (ran, passed bool),
) []entity.Guard {
	return []entity.Guard{
		HasBundleApproval(latestRound),
		HasRequiredEvidence(evidenceFiles, requiredFor),
		HasAllWavesPassed(waveStatus),
	}
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, i := range items {
		out[i] = true
	}
	return out
}
