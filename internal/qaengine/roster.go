package qaengine

import (
	"sort"

	"github.com/edison-dev/edison/internal/config"
)

// Validator names one executable check; presets reference validators
// by name and the roster union-dedupes across every cluster member's
// resolved preset.
type Validator struct {
	Name string
}

// UnionRoster resolves the set of validators that must run across an
// entire cluster: each member may resolve to a different preset (a
// docs-only child next to a code-bearing sibling), so the roster is
// the union of every member's preset's validator list, deduplicated
// and sorted for deterministic reporting order.
func UnionRoster(memberPresets []Resolution, cfg config.ValidationConfig) []Validator {
	seen := map[string]bool{}
	var names []string
	for _, res := range memberPresets {
		preset, ok := cfg.Presets[res.Preset]
		if !ok {
			continue
		}
		for _, v := range preset.Validators {
			if !seen[v] {
				seen[v] = true
				names = append(names, v)
			}
		}
	}
	sort.Strings(names)

	out := make([]Validator, len(names))
	for i, n := range names {
		out[i] = Validator{Name: n}
	}
	return out
}
