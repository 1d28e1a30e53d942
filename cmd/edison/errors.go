package main

import (
	"errors"

	"github.com/edison-dev/edison/internal/edisonerr"
)

// exitCodeFor maps any error surfaced from Execute to the stable CLI
// exit code contract (spec.md §6): 0 success, 1 resolution/validation/
// config/not-found, 2 everything else in the taxonomy, 3 guard/
// dependency denials.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var e *edisonerr.Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	var blocked *edisonerr.TransitionBlocked
	if errors.As(err, &blocked) {
		return edisonerr.KindTransitionBlocked.ExitCode()
	}
	var deps *edisonerr.DependenciesUnsatisfied
	if errors.As(err, &deps) {
		return edisonerr.KindDependenciesUnsatisfied.ExitCode()
	}
	return 2
}
