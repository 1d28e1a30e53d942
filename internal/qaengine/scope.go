package qaengine

import (
	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/graph"
)

// Scope selects which tasks a validation round covers.
type Scope string

const (
	ScopeHierarchy Scope = "hierarchy"
	ScopeBundle    Scope = "bundle"
	ScopeAuto      Scope = "auto"
)

// BuildCluster resolves root's validation cluster for scope:
//   - hierarchy: root plus every descendant (graph.Index.BundleMembers)
//   - bundle: root ∪ {t : t.bundle_root == root}; if the caller passed
//     a non-root member (one that itself carries a bundle_root edge),
//     the actual root is derived from it first (spec.md §4.5 C5.2)
//   - auto: bundle if any bundle members exist, else hierarchy
func BuildCluster(root string, scope Scope, idx *graph.Index) ([]string, error) {
	switch scope {
	case ScopeHierarchy:
		return idx.BundleMembers(root), nil
	case ScopeBundle:
		return bundleMembers(root, idx), nil
	case ScopeAuto:
		if members := bundleMembers(root, idx); len(members) > 1 {
			return members, nil
		}
		return idx.BundleMembers(root), nil
	default:
		return nil, edisonerr.New(edisonerr.KindValidationError, root, "unknown validation scope: "+string(scope))
	}
}

// bundleMembers derives the actual bundle root from the passed id
// (which may itself be a non-root member carrying a bundle_root edge)
// and returns actualRoot ∪ every task whose bundle_root points at it.
func bundleMembers(root string, idx *graph.Index) []string {
	actualRoot := root
	if derived, ok := idx.BundleRootOf(root); ok {
		actualRoot = derived
	}
	return append([]string{actualRoot}, idx.TasksWithBundleRoot(actualRoot)...)
}
