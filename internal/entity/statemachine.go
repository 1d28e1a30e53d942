package entity

import (
	"fmt"

	"github.com/edison-dev/edison/internal/edisonerr"
)

// StateMachine declares the legal states and transitions for one
// entity kind, generalizing the teacher's per-type transition map
// (internal/validation/task.go's taskTransitions) into a reusable,
// data-driven config.
type StateMachine struct {
	States      []string
	Transitions map[string][]string
	Terminal    map[string]bool
	// Reopen lists transitions that move a terminal-ish state back into
	// the active flow (e.g. blocked -> pending); Guards still apply.
	Reopen map[string][]string
}

// IsAllowed reports whether from->to is declared, either as a forward
// transition or a reopen transition.
func (sm *StateMachine) IsAllowed(from, to string) bool {
	if allowed(sm.Transitions, from, to) {
		return true
	}
	return allowed(sm.Reopen, from, to)
}

func allowed(table map[string][]string, from, to string) bool {
	for _, candidate := range table[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionContext carries the data guards need to decide, mirroring
// the teacher's validation.TransitionContext but generalized to any
// entity kind and any read-only dependency a guard wants (it is the
// guard's job to type-assert its own Extra fields).
type TransitionContext struct {
	Force   bool
	Actor   string
	Extra   map[string]any
}

// Guard is a pure, read-only check run during a transition. It
// generalizes the teacher's Validator interface from a single
// per-type dispatch into an ordered list the state machine invokes in
// declaration order, stopping at the first denial.
type Guard interface {
	Name() string
	Check(e Entity, from, to string, tctx *TransitionContext) *GuardResult
}

// GuardFunc adapts a plain function to the Guard interface.
type GuardFunc struct {
	GuardName string
	Fn        func(e Entity, from, to string, tctx *TransitionContext) *GuardResult
}

func (g GuardFunc) Name() string { return g.GuardName }
func (g GuardFunc) Check(e Entity, from, to string, tctx *TransitionContext) *GuardResult {
	return g.Fn(e, from, to, tctx)
}

// Severity classifies how forceful a guard denial is, carried over
// from the teacher's internal/guards severity levels.
type Severity int

const (
	SeveritySuggestion Severity = iota
	SeverityWarning
	SeveritySoftBlock
	SeverityHardBlock
)

func (s Severity) String() string {
	switch s {
	case SeveritySuggestion:
		return "suggestion"
	case SeverityWarning:
		return "warning"
	case SeveritySoftBlock:
		return "soft_block"
	case SeverityHardBlock:
		return "hard_block"
	default:
		return "unknown"
	}
}

// GuardResult is a guard's verdict. A nil *GuardResult (or Passed
// true) means the guard raised no objection.
type GuardResult struct {
	Passed   bool
	Severity Severity
	Message  string
	Remedy   string
}

// Blocks reports whether this result should stop the transition, given
// whether the caller requested --force.
func (r *GuardResult) Blocks(force bool) bool {
	if r == nil || r.Passed {
		return false
	}
	if r.Severity == SeverityHardBlock {
		return true
	}
	if r.Severity == SeveritySoftBlock {
		return !force
	}
	return false // Warning and Suggestion never block
}

// Pass returns a passing result; a convenience mirroring the teacher's
// guards.Pass().
func Pass() *GuardResult { return &GuardResult{Passed: true} }

// Deny returns a failing result at the given severity.
func Deny(severity Severity, message, remedy string) *GuardResult {
	return &GuardResult{Passed: false, Severity: severity, Message: message, Remedy: remedy}
}

// RunGuards runs guards in order, returning the first blocking denial.
// Non-blocking denials (warnings, suggestions, overridden soft blocks)
// are collected and returned alongside a nil error so callers can
// surface them as advisories.
func RunGuards(guards []Guard, e Entity, from, to string, tctx *TransitionContext) ([]*GuardResult, error) {
	var advisories []*GuardResult
	for _, g := range guards {
		result := g.Check(e, from, to, tctx)
		if result == nil || result.Passed {
			continue
		}
		if result.Blocks(tctx.Force) {
			return advisories, &edisonerr.TransitionBlocked{
				GuardID: g.Name(),
				Reason:  result.Message,
				Remedy:  result.Remedy,
			}
		}
		advisories = append(advisories, result)
	}
	return advisories, nil
}

// ValidateTransition checks the declared table only, without running
// guards — used by callers that want a cheap dry-run check.
func (sm *StateMachine) ValidateTransition(from, to string) error {
	if from == to {
		return edisonerr.New(edisonerr.KindValidationError, "", "already in target state")
	}
	if !sm.IsAllowed(from, to) {
		return edisonerr.New(edisonerr.KindValidationError, "", fmt.Sprintf("cannot transition from %q to %q", from, to))
	}
	return nil
}
