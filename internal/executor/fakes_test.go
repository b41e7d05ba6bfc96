package executor

import (
	"context"
	"sort"
	"time"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type fakeWorkflows struct {
	byID map[string]domain.Workflow
}

func newFakeWorkflows(workflows ...domain.Workflow) *fakeWorkflows {
	f := &fakeWorkflows{byID: make(map[string]domain.Workflow)}
	for _, w := range workflows {
		f.byID[w.ID] = w
	}
	return f
}

func (f *fakeWorkflows) Create(ctx context.Context, workflow domain.Workflow) error {
	f.byID[workflow.ID] = workflow
	return nil
}

func (f *fakeWorkflows) Get(ctx context.Context, id string) (domain.Workflow, error) {
	w, ok := f.byID[id]
	if !ok {
		return domain.Workflow{}, repo.ErrNotFound
	}
	return w, nil
}

func (f *fakeWorkflows) List(ctx context.Context) ([]domain.Workflow, error) {
	out := make([]domain.Workflow, 0, len(f.byID))
	for _, w := range f.byID {
		out = append(out, w)
	}
	return out, nil
}

type fakeRuns struct {
	byID map[string]domain.Run
}

func newFakeRuns(runs ...domain.Run) *fakeRuns {
	f := &fakeRuns{byID: make(map[string]domain.Run)}
	for _, r := range runs {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeRuns) snapshot() map[string]domain.Run {
	out := make(map[string]domain.Run, len(f.byID))
	for k, v := range f.byID {
		out[k] = v
	}
	return out
}

func (f *fakeRuns) restore(snap map[string]domain.Run) { f.byID = snap }

func (f *fakeRuns) Create(ctx context.Context, db repo.DB, run domain.Run) error {
	f.byID[run.ID] = run
	return nil
}

func (f *fakeRuns) Get(ctx context.Context, db repo.DB, id string) (domain.Run, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Run{}, repo.ErrNotFound
	}
	return r, nil
}

func (f *fakeRuns) List(ctx context.Context, db repo.DB) ([]repo.RunSummary, error) {
	out := make([]repo.RunSummary, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, repo.RunSummary{Run: r})
	}
	return out, nil
}

func (f *fakeRuns) ListRunning(ctx context.Context, db repo.DB) ([]domain.Run, error) {
	out := make([]domain.Run, 0)
	for _, r := range f.byID {
		if r.Status == domain.RunRunning {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuns) Update(ctx context.Context, db repo.DB, id string, update repo.RunUpdate) error {
	r, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	r.Status = update.Status
	if update.StartedAt != nil {
		r.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		r.CompletedAt = update.CompletedAt
	}
	f.byID[id] = r
	return nil
}

type fakeSteps struct {
	byID map[string]domain.Step
}

func newFakeSteps(steps ...domain.Step) *fakeSteps {
	f := &fakeSteps{byID: make(map[string]domain.Step)}
	for _, s := range steps {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSteps) snapshot() map[string]domain.Step {
	out := make(map[string]domain.Step, len(f.byID))
	for k, v := range f.byID {
		out[k] = v
	}
	return out
}

func (f *fakeSteps) restore(snap map[string]domain.Step) { f.byID = snap }

func (f *fakeSteps) CreateMany(ctx context.Context, db repo.DB, steps []domain.Step) error {
	for _, s := range steps {
		f.byID[s.ID] = s
	}
	return nil
}

func (f *fakeSteps) Get(ctx context.Context, db repo.DB, id string) (domain.Step, error) {
	s, ok := f.byID[id]
	if !ok {
		return domain.Step{}, repo.ErrNotFound
	}
	return s, nil
}

func (f *fakeSteps) ListByRun(ctx context.Context, db repo.DB, runID string) ([]domain.Step, error) {
	out := make([]domain.Step, 0)
	for _, s := range f.byID {
		if s.RunID == runID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepIndex < out[j].StepIndex })
	return out, nil
}

func (f *fakeSteps) Update(ctx context.Context, db repo.DB, id string, update repo.StepUpdate) error {
	s, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Status = update.Status
	if update.StartedAt != nil && s.StartedAt == nil {
		s.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		s.CompletedAt = update.CompletedAt
	}
	if update.ErrorMessage != nil {
		s.ErrorMessage = update.ErrorMessage
	}
	if update.IdempotencyKey != nil {
		s.IdempotencyKey = update.IdempotencyKey
	}
	if update.RetryCount != nil {
		s.RetryCount = *update.RetryCount
	}
	f.byID[id] = s
	return nil
}

type fakeStepResults struct {
	byKey map[string]domain.StepResult
}

func newFakeStepResults(results ...domain.StepResult) *fakeStepResults {
	f := &fakeStepResults{byKey: make(map[string]domain.StepResult)}
	for _, r := range results {
		f.byKey[r.IdempotencyKey] = r
	}
	return f
}

func (f *fakeStepResults) snapshot() map[string]domain.StepResult {
	out := make(map[string]domain.StepResult, len(f.byKey))
	for k, v := range f.byKey {
		out[k] = v
	}
	return out
}

func (f *fakeStepResults) restore(snap map[string]domain.StepResult) { f.byKey = snap }

func (f *fakeStepResults) Insert(ctx context.Context, db repo.DB, result domain.StepResult) (bool, error) {
	if _, exists := f.byKey[result.IdempotencyKey]; exists {
		return false, nil
	}
	result.CreatedAt = time.Now().UTC()
	f.byKey[result.IdempotencyKey] = result
	return true, nil
}

func (f *fakeStepResults) Get(ctx context.Context, db repo.DB, idempotencyKey string) (domain.StepResult, error) {
	r, ok := f.byKey[idempotencyKey]
	if !ok {
		return domain.StepResult{}, repo.ErrNotFound
	}
	return r, nil
}

type fakeOrders struct {
	byID map[string]domain.Order
}

func newFakeOrders(orders ...domain.Order) *fakeOrders {
	f := &fakeOrders{byID: make(map[string]domain.Order)}
	for _, o := range orders {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) snapshot() map[string]domain.Order {
	out := make(map[string]domain.Order, len(f.byID))
	for k, v := range f.byID {
		out[k] = v
	}
	return out
}

func (f *fakeOrders) restore(snap map[string]domain.Order) { f.byID = snap }

func (f *fakeOrders) Get(ctx context.Context, db repo.DB, id string) (domain.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return domain.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, db repo.DB, id string, next domain.OrderStatus) error {
	o, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if !o.CanTransition(next) {
		return domain.ErrInvalidOrderTransition
	}
	o.Status = next
	f.byID[id] = o
	return nil
}

// fakeTransactor gives the in-memory repositories just enough
// transaction semantics to exercise the Step Executor's atomic
// success commit: it snapshots every map the commit can touch before
// running fn, and restores them if fn fails, mirroring a real
// transaction's rollback.
type fakeTransactor struct {
	steps   *fakeSteps
	results *fakeStepResults
	orders  *fakeOrders
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(db repo.DB) error) error {
	stepsSnap := t.steps.snapshot()
	resultsSnap := t.results.snapshot()
	ordersSnap := t.orders.snapshot()

	if err := fn(nil); err != nil {
		t.steps.restore(stepsSnap)
		t.results.restore(resultsSnap)
		t.orders.restore(ordersSnap)
		return err
	}
	return nil
}

