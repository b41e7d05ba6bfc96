package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// StepConfig is the opaque per-step configuration carried inside a
// Workflow's definition. Only the Action Dispatcher and Task Runner
// interpret it; the Store and API treat it as part of the definition
// blob.
type StepConfig struct {
	Action          string  `json:"action"`
	DurationSeconds float64 `json:"duration_seconds"`
	FailProbability float64 `json:"fail_probability"`
	MaxRetries      int     `json:"max_retries"`
}

// StepDefinition is one entry of a submitted workflow definition, before
// topological ordering is applied.
type StepDefinition struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Config    StepConfig `json:"config"`
	DependsOn []string   `json:"depends_on"`
}

// Definition is the parsed shape of a workflow's wire-format submission.
// The stored definition blob is this struct re-serialized by the API, not
// the submitted bytes: fields outside Definition, key order and
// whitespace of the original request are not kept.
type Definition struct {
	Name  string           `json:"name"`
	Steps []StepDefinition `json:"steps"`
}

// ParseDefinition unmarshals a stored or submitted definition blob. It
// performs no structural validation beyond JSON well-formedness; that is
// the Validator's job (internal/validate), run before
// WorkflowRepository.Create is ever called.
func ParseDefinition(blob []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(blob, &def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Workflow is immutable once created. DefinitionBlob holds the
// re-serialized Definition (see Definition), not the submitted bytes.
type Workflow struct {
	ID             string
	Name           string
	DefinitionBlob []byte
	CreatedAt      time.Time
}

func (w Workflow) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("name is required")
	}
	if len(w.DefinitionBlob) == 0 {
		return errors.New("definition is required")
	}
	return nil
}

// Definition parses the workflow's stored definition blob.
func (w Workflow) Definition() (Definition, error) {
	return ParseDefinition(w.DefinitionBlob)
}
