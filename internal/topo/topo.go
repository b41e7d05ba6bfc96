// Package topo implements the deterministic dependency ordering the Run
// Executor relies on: Kahn's algorithm with ties broken by original
// array position rather than name, so re-sorting the same definition
// always yields identical step_index values (invariant 7).
package topo

import (
	"fmt"
	"sort"

	"github.com/flowforge/durableflow/internal/domain"
)

// ErrCycle is returned when the dependency graph contains a cycle; the
// output would otherwise be shorter than the input.
var ErrCycle = fmt.Errorf("dependency graph contains a cycle")

// Sort orders steps so that for every dependency edge u -> v, u precedes
// v, and among steps ready at the same moment the one appearing earlier
// in defs is scheduled first.
func Sort(defs []domain.StepDefinition) ([]domain.StepDefinition, error) {
	position := make(map[string]int, len(defs))
	byID := make(map[string]domain.StepDefinition, len(defs))
	for i, def := range defs {
		position[def.ID] = i
		byID[def.ID] = def
	}

	inDegree := make(map[string]int, len(defs))
	adjacency := make(map[string][]string, len(defs))
	for _, def := range defs {
		if _, ok := inDegree[def.ID]; !ok {
			inDegree[def.ID] = 0
		}
		for _, dep := range def.DependsOn {
			adjacency[dep] = append(adjacency[dep], def.ID)
			inDegree[def.ID]++
		}
	}

	ready := make([]string, 0, len(defs))
	for _, def := range defs {
		if inDegree[def.ID] == 0 {
			ready = append(ready, def.ID)
		}
	}
	sortByPosition(ready, position)

	ordered := make([]domain.StepDefinition, 0, len(defs))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[id])

		for _, dependent := range adjacency[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sortByPosition(ready, position)
	}

	if len(ordered) != len(defs) {
		return nil, ErrCycle
	}
	return ordered, nil
}

func sortByPosition(ids []string, position map[string]int) {
	sort.SliceStable(ids, func(i, j int) bool {
		return position[ids[i]] < position[ids[j]]
	})
}
