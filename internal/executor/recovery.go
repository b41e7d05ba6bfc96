package executor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flowforge/durableflow/internal/repo"
)

// RecoveryCoordinator resumes every run left in domain.RunRunning at
// process startup, before the HTTP surface accepts requests. Every run
// in that state is, by construction of the Step and Run Executors, in
// a well-defined partial state the executors can deterministically
// finish from.
type RecoveryCoordinator struct {
	DB     repo.DB
	Runs   repo.RunRepository
	Run    *RunExecutor
	Logger *slog.Logger
}

func NewRecoveryCoordinator(db repo.DB, runs repo.RunRepository, run *RunExecutor, logger *slog.Logger) *RecoveryCoordinator {
	return &RecoveryCoordinator{DB: db, Runs: runs, Run: run, Logger: logger}
}

// Recover spawns one background worker per run currently running, and
// returns a WaitGroup a caller (typically a test) can use to block
// until every recovered run has reached a terminal state.
func (c *RecoveryCoordinator) Recover(ctx context.Context) (*sync.WaitGroup, error) {
	runs, err := c.Runs.ListRunning(ctx, c.DB)
	if err != nil {
		return nil, err
	}

	c.Logger.InfoContext(ctx, "recovering interrupted runs", "count", len(runs))

	var wg sync.WaitGroup
	for _, run := range runs {
		wg.Add(1)
		go func(runID string) {
			defer wg.Done()
			c.Run.Run(ctx, runID)
		}(run.ID)
	}
	return &wg, nil
}
