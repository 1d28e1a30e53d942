package main

import (
	"github.com/edison-dev/edison/internal/continuation"
	"github.com/edison-dev/edison/internal/task"
)

// continuationPayload is the stable JSON shape `session next` prints,
// wrapping continuation.Payload with the blocker/action framing
// spec.md §4.6 describes.
type continuationPayload struct {
	*continuation.Payload
	Blockers []string `json:"blockers,omitempty"`
}

func taskListAll(e *env) ([]*task.Task, error) {
	return task.ListAll(e.resolver, e.taskRepo)
}

// buildContinuationPayload runs the fail-open continuation.Compute and
// adds the blocker summary a hook-facing caller wants alongside it.
func buildContinuationPayload(e *env, sessionOverride string, ready, inProgress, blocked int, allValidated bool) (*continuationPayload, error) {
	payload, err := continuation.Compute(continuation.Inputs{
		Config:          e.cfg.Continuation,
		SessionOverride: sessionOverride,
		ReadyTaskCount:  ready,
		InProgressCount: inProgress,
		BlockedCount:    blocked,
		AllValidated:    allValidated,
	})
	if err != nil {
		return nil, err
	}

	var blockers []string
	if blocked > 0 {
		blockers = append(blockers, "blocked tasks require manual intervention")
	}

	return &continuationPayload{Payload: payload, Blockers: blockers}, nil
}
