// Package validate performs structural validation of a workflow
// definition before it is ever persisted: empty step lists, duplicate
// step IDs, dangling dependency references, and dependency cycles.
//
// This duplicates the cycle check internal/topo performs during
// sorting. That redundancy is intentional: this package rejects a
// malformed definition at submission time with a readable error
// listing every problem at once, while internal/topo's check exists to
// make Sort itself safe to call on data that, through some other path,
// slipped past validation. Two independent guards against the same
// failure mode is cheaper than the alternative.
package validate

import (
	"github.com/flowforge/durableflow/internal/domain"
)

const (
	nodeUnvisited = 0
	nodeVisiting  = 1
	nodeDone      = 2
)

// Definition checks def for structural problems and returns an error
// listing every issue found, or nil if def is well formed.
func Definition(def domain.Definition) error {
	issues := &Error{}

	if len(def.Steps) == 0 {
		issues.Add("workflow definition has no steps")
		return issues.OrNil()
	}

	seen := make(map[string]bool, len(def.Steps))
	for _, step := range def.Steps {
		if step.ID == "" {
			issues.Add("step has an empty id")
			continue
		}
		if seen[step.ID] {
			issues.Add("duplicate step id: " + step.ID)
			continue
		}
		seen[step.ID] = true
	}

	adjacency := make(map[string][]string, len(def.Steps))
	for _, step := range def.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.ID {
				issues.Add("step " + step.ID + " depends on itself")
				continue
			}
			if !seen[dep] {
				issues.Add("step " + step.ID + " depends on unknown step " + dep)
				continue
			}
			adjacency[step.ID] = append(adjacency[step.ID], dep)
		}
	}

	// Cycle detection only makes sense once every edge endpoint is
	// known to exist; skip it if earlier checks already failed so the
	// cycle walk never follows a dangling reference.
	if len(issues.Issues) == 0 {
		state := make(map[string]int, len(def.Steps))
		for _, step := range def.Steps {
			if state[step.ID] == nodeUnvisited {
				if hasCycle(step.ID, adjacency, state) {
					issues.Add("dependency graph contains a cycle")
					break
				}
			}
		}
	}

	return issues.OrNil()
}

func hasCycle(id string, adjacency map[string][]string, state map[string]int) bool {
	state[id] = nodeVisiting
	for _, dep := range adjacency[id] {
		switch state[dep] {
		case nodeVisiting:
			return true
		case nodeUnvisited:
			if hasCycle(dep, adjacency, state) {
				return true
			}
		}
	}
	state[id] = nodeDone
	return false
}
