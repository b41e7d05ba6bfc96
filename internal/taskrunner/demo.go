package taskrunner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type scoreFunc func(workflowID, runID, stepID string, attempt int) float64

// DemoRunner is the reference task body: it sleeps Config.DurationSeconds
// and fails with Config.FailProbability. The outcome is deterministically
// seeded from (workflowID, runID, stepID, attempt) rather than actually
// randomized, so the same attempt produces the same outcome across test
// runs and across a crash-and-retry of the very same attempt number.
type DemoRunner struct {
	score scoreFunc
}

func NewDemoRunner() *DemoRunner {
	return &DemoRunner{score: deterministicScore}
}

func (r *DemoRunner) Run(ctx context.Context, input Input) (Result, error) {
	duration := time.Duration(input.Config.DurationSeconds * float64(time.Second))
	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	score := r.score(input.WorkflowID, input.RunID, input.StepID, input.Attempt)
	if score < input.Config.FailProbability {
		return Result{}, NewTaskExecutionError(fmt.Sprintf(
			"demo task failed (score=%.4f < fail_probability=%.4f)", score, input.Config.FailProbability))
	}

	payload, err := json.Marshal(map[string]any{
		"step_id": input.StepID,
		"attempt": input.Attempt,
		"score":   score,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal demo result: %w", err)
	}
	return Result{ResultData: payload}, nil
}

func deterministicScore(workflowID, runID, stepID string, attempt int) float64 {
	seed := fmt.Sprintf("%s:%s:%s:%d", workflowID, runID, stepID, attempt)
	sum := sha256.Sum256([]byte(seed))
	value := binary.BigEndian.Uint64(sum[:8])
	return float64(value) / float64(math.MaxUint64)
}
