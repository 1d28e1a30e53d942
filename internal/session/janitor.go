package session

import (
	"context"
	"os"
	"time"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/task"
)

// SweepResult reports what one cleanup-stale pass did, surfaced to the
// CLI and to the audit stream.
type SweepResult struct {
	SweptSessions  []string
	ReleasedTasks  []string
}

// Sweep finds every active session past threshold and transitions it
// to stale, releasing its claimed tasks back to the global ready pool
// so other agents can pick them up. Adapted from the teacher's
// internal/tools/janitor issue-detection-plus-auto-fix shape
// (detect, then optionally remediate) — here remediation is always
// applied, since a stale claim left in place is never the desired
// end state.
func Sweep(resolver *paths.Resolver, sessionRepo *entity.Repository[*Session], taskRepo *entity.Repository[*task.Task], threshold time.Duration) (*SweepResult, error) {
	// Session records live one directory down (sessions/<id>/session.md),
	// so they are found by scanning the session directories.
	entries, err := os.ReadDir(resolver.SessionsDir())
	if err != nil && !os.IsNotExist(err) {
		return nil, edisonerr.IOError(resolver.SessionsDir(), err)
	}

	result := &SweepResult{}
	now := time.Now()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := sessionRepo.Load(entry.Name())
		if err != nil || s.Status != StatusActive || !IsStale(s, threshold, now) {
			continue
		}
		if _, err := sessionRepo.Transition(s.ID, StatusStale, entity.TransitionOpts{Actor: "sweep"}); err != nil {
			return nil, err
		}
		result.SweptSessions = append(result.SweptSessions, s.ID)

		for _, taskID := range s.ClaimedTasks {
			if _, err := taskRepo.Transition(taskID, task.StatusReady, entity.TransitionOpts{Actor: "sweep", Force: true}); err != nil {
				continue // leave this one for a manual look; sweep is best-effort
			}
			_ = task.ClearOwner(resolver, taskID)
			result.ReleasedTasks = append(result.ReleasedTasks, taskID)
		}
	}
	return result, nil
}

// SweepJob adapts Sweep to the scheduler.Job interface so it can run
// on a fixed interval when session.recovery.auto_sweep is enabled.
type SweepJob struct {
	Resolver    *paths.Resolver
	SessionRepo *entity.Repository[*Session]
	TaskRepo    *entity.Repository[*task.Task]
	Threshold   time.Duration
}

func (j *SweepJob) Name() string { return "session-stale-sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	_, err := Sweep(j.Resolver, j.SessionRepo, j.TaskRepo, j.Threshold)
	return err
}
