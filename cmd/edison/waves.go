package main

import (
	"sort"

	"github.com/edison-dev/edison/internal/task"
)

// computeWaves groups every not-yet-validated task into dependency-
// ordered waves: wave 0 holds tasks with no outstanding depends_on
// edge, wave N+1 holds tasks whose every depends_on target is in
// wave ≤N. Ties within a wave are broken by task id for deterministic
// output (spec.md GLOSSARY "Wave").
func computeWaves(tasks []*task.Task) [][]string {
	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		if t.Status == task.StatusValidated {
			continue
		}
		byID[t.ID] = t
	}

	level := make(map[string]int, len(byID))
	var resolve func(id string, visiting map[string]bool) int
	resolve = func(id string, visiting map[string]bool) int {
		if l, ok := level[id]; ok {
			return l
		}
		t, ok := byID[id]
		if !ok {
			return -1 // dependency outside the outstanding set (already validated) never delays a wave
		}
		if visiting[id] {
			return 0 // a dependency cycle; don't recurse forever, treat as wave 0
		}
		visiting[id] = true
		max := -1
		for _, e := range t.Relationships {
			if e.Type != "depends_on" {
				continue
			}
			if l := resolve(e.Target, visiting); l > max {
				max = l
			}
		}
		delete(visiting, id)
		level[id] = max + 1
		return level[id]
	}

	var maxLevel int
	for id := range byID {
		l := resolve(id, map[string]bool{})
		if l > maxLevel {
			maxLevel = l
		}
	}

	waves := make([][]string, maxLevel+1)
	for id, l := range level {
		waves[l] = append(waves[l], id)
	}
	for _, w := range waves {
		sort.Strings(w)
	}
	return waves
}
