package domain

import (
	"encoding/json"
	"testing"
)

func TestWorkflowValidate(t *testing.T) {
	valid := Workflow{ID: "wf-1", Name: "ship-order", DefinitionBlob: []byte(`{"name":"ship-order","steps":[]}`)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}

	if err := (Workflow{}).Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for empty workflow")
	}
	if err := (Workflow{ID: "wf-1", Name: "x"}).Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing definition")
	}
}

func TestWorkflowDefinitionRoundTrips(t *testing.T) {
	def := Definition{Name: "ship-order", Steps: []StepDefinition{
		{ID: "validate", Type: "action", Config: StepConfig{Action: "validate_order"}},
		{ID: "charge", Type: "action", Config: StepConfig{Action: "charge_payment"}, DependsOn: []string{"validate"}},
	}}
	blob, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}

	workflow := Workflow{ID: "wf-1", Name: def.Name, DefinitionBlob: blob}
	got, err := workflow.Definition()
	if err != nil {
		t.Fatalf("Definition() err=%v", err)
	}
	if len(got.Steps) != 2 || got.Steps[1].DependsOn[0] != "validate" {
		t.Fatalf("Definition() = %+v, want 2 steps with charge depending on validate", got)
	}
}

func TestRunValidate(t *testing.T) {
	if err := (Run{ID: "run-1", WorkflowID: "wf-1", Status: RunPending}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}
	if err := (Run{ID: "run-1", WorkflowID: "wf-1", Status: RunStatus("bogus")}).Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for invalid status")
	}
	if err := (Run{WorkflowID: "wf-1", Status: RunPending}).Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing id")
	}
}

func TestStepValidate(t *testing.T) {
	valid := Step{ID: "s1", RunID: "run-1", StepID: "validate", StepIndex: 0, Status: StepPending}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}
	invalid := valid
	invalid.StepIndex = -1
	if err := invalid.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for negative step index")
	}
}

func TestStepResultValidate(t *testing.T) {
	if err := (StepResult{IdempotencyKey: "k1", StepID: "s1"}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}
	if err := (StepResult{StepID: "s1"}).Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing idempotency key")
	}
}

func TestOrderCanTransition(t *testing.T) {
	cases := []struct {
		from OrderStatus
		next OrderStatus
		want bool
	}{
		{OrderPending, OrderValidated, true},
		{OrderPending, OrderCharged, false},
		{OrderValidated, OrderCharged, true},
		{OrderCharged, OrderShipped, true},
		{OrderShipped, OrderShipped, false},
	}
	for _, c := range cases {
		order := Order{Status: c.from}
		if got := order.CanTransition(c.next); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.next, got, c.want)
		}
	}
}

func TestOrderValidate(t *testing.T) {
	valid := Order{ID: "o1", Status: OrderPending, AmountCents: 500}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}
	negative := valid
	negative.AmountCents = -1
	if err := negative.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for negative amount")
	}
}

func TestRunStatusTerminal(t *testing.T) {
	if RunPending.Terminal() || RunRunning.Terminal() {
		t.Fatal("pending/running should not be terminal")
	}
	if !RunCompleted.Terminal() || !RunFailed.Terminal() {
		t.Fatal("completed/failed should be terminal")
	}
}

func TestParseRunStatus(t *testing.T) {
	got, ok := ParseRunStatus(" Running ")
	if !ok || got != RunRunning {
		t.Fatalf("ParseRunStatus() = (%v, %v), want (running, true)", got, ok)
	}
	if _, ok := ParseRunStatus("bogus"); ok {
		t.Fatal("ParseRunStatus(bogus) = true, want false")
	}
}

func TestParseDefinitionInvalidJSON(t *testing.T) {
	if _, err := ParseDefinition([]byte("not json")); err == nil {
		t.Fatal("ParseDefinition() = nil, want error for malformed JSON")
	}
}
