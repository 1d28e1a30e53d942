// Package continuation computes the session-next/continuation payload
// consumed by hook-facing callers. Compute must never mutate state: it
// only reads sessions, tasks, and config to decide what should happen
// next, and it must never let an unexpected panic propagate to a
// caller that can't handle one (spec.md §4.6, §7).
package continuation

import (
	"fmt"

	"github.com/edison-dev/edison/internal/config"
)

// Completion reports whether the current unit of work is done, and if
// not, why.
type Completion struct {
	IsComplete        bool     `json:"is_complete"`
	ReasonsIncomplete []string `json:"reasons_incomplete,omitempty"`
}

// Payload is Compute's full result.
type Payload struct {
	Mode       string     `json:"mode"` // off | soft | hard
	Completion Completion `json:"completion"`
	NextAction string     `json:"next_action,omitempty"`
	Iteration  int        `json:"iteration"`
	MaxIterations int     `json:"max_iterations"`
	Cooldown   int        `json:"cooldown_seconds"`
}

// Inputs bundles everything Compute needs to decide, kept as plain
// data so Compute itself stays a pure function of its arguments.
type Inputs struct {
	Config          config.ContinuationConfig
	SessionOverride string // "" | off | soft | hard, from session record
	PlatformOverride string // "" | off | soft | hard, from platform adapter
	Iteration       int
	ReadyTaskCount  int
	InProgressCount int
	BlockedCount    int
	AllValidated    bool
}

// Compute resolves the effective continuation mode (default overridden
// by session overridden by platform, per the resolved Open Question in
// DESIGN.md) and the completion verdict, recovering from any panic
// into a conservative "not complete" payload rather than propagating
// it — the fail-open mandate spec.md §7 places on every hook-facing
// path.
func Compute(in Inputs) (payload *Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = &Payload{
				Mode: resolveMode(in),
				Completion: Completion{
					IsComplete:        false,
					ReasonsIncomplete: []string{fmt.Sprintf("continuation computation failed: %v", r)},
				},
				Iteration: in.Iteration,
			}
			err = nil
		}
	}()

	mode := resolveMode(in)
	completion := computeCompletion(in)

	p := &Payload{
		Mode:          mode,
		Completion:    completion,
		Iteration:     in.Iteration,
		MaxIterations: in.Config.MaxIterations,
		Cooldown:      in.Config.CooldownSeconds,
	}

	if mode == "off" || completion.IsComplete {
		return p, nil
	}
	if in.Config.StopOnBlocked && in.BlockedCount > 0 {
		p.NextAction = "stop: blocked tasks require manual intervention"
		return p, nil
	}
	if in.Config.MaxIterations > 0 && in.Iteration >= in.Config.MaxIterations {
		p.NextAction = "stop: max iterations reached"
		return p, nil
	}
	if in.ReadyTaskCount > 0 {
		p.NextAction = "claim next ready task"
	} else if in.InProgressCount > 0 {
		p.NextAction = "wait: tasks in progress"
	} else {
		p.NextAction = "stop: nothing ready and nothing in progress"
	}
	return p, nil
}

// resolveMode layers default <- session <- platform, later non-empty
// override wins (Open Question resolution, see DESIGN.md).
func resolveMode(in Inputs) string {
	mode := in.Config.DefaultMode
	if in.SessionOverride != "" {
		mode = in.SessionOverride
	}
	if in.PlatformOverride != "" {
		mode = in.PlatformOverride
	}
	return mode
}

func computeCompletion(in Inputs) Completion {
	switch in.Config.CompletionPolicy {
	case "all_tasks_validated":
		if in.AllValidated {
			return Completion{IsComplete: true}
		}
		return Completion{IsComplete: false, ReasonsIncomplete: []string{"not every task is validated"}}
	default: // parent_validated_children_done
		if in.AllValidated {
			return Completion{IsComplete: true}
		}
		reasons := []string{"parent is not yet validated with all children done"}
		return Completion{IsComplete: false, ReasonsIncomplete: reasons}
	}
}
