package topo

import (
	"reflect"
	"testing"

	"github.com/flowforge/durableflow/internal/domain"
)

func def(id string, dependsOn ...string) domain.StepDefinition {
	return domain.StepDefinition{ID: id, Type: "demo", DependsOn: dependsOn}
}

func ids(defs []domain.StepDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ID)
	}
	return out
}

func TestSortBreaksTiesByArrayPosition(t *testing.T) {
	defs := []domain.StepDefinition{
		def("b"),
		def("a"),
		def("c", "a", "b"),
	}

	ordered, err := Sort(defs)
	if err != nil {
		t.Fatalf("Sort() err=%v", err)
	}
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(ids(ordered), want) {
		t.Fatalf("Sort() = %v, want %v", ids(ordered), want)
	}
}

func TestSortIsStableAcrossRuns(t *testing.T) {
	defs := []domain.StepDefinition{
		def("x"),
		def("y"),
		def("z", "x"),
		def("w", "y"),
	}

	first, err := Sort(defs)
	if err != nil {
		t.Fatalf("Sort() err=%v", err)
	}
	second, err := Sort(defs)
	if err != nil {
		t.Fatalf("Sort() err=%v", err)
	}
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Fatalf("Sort() not stable: %v vs %v", ids(first), ids(second))
	}
}

func TestSortAcceptsForwardReference(t *testing.T) {
	defs := []domain.StepDefinition{
		def("B", "A"),
		def("A"),
	}
	ordered, err := Sort(defs)
	if err != nil {
		t.Fatalf("Sort() err=%v", err)
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(ids(ordered), want) {
		t.Fatalf("Sort() = %v, want %v", ids(ordered), want)
	}
}

func TestSortRejectsCycle(t *testing.T) {
	defs := []domain.StepDefinition{
		def("A", "B"),
		def("B", "A"),
	}
	if _, err := Sort(defs); err != ErrCycle {
		t.Fatalf("Sort() err=%v, want ErrCycle", err)
	}
}
