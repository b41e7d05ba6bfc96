// Package api is the HTTP adapter over the durable execution engine: it
// decodes and validates workflow submissions, persists them, and starts
// new runs, delegating every stateful decision to
// internal/repo, internal/validate, internal/topo, and
// internal/executor. Grounded on the teacher's experimentsAPI — same
// register-a-mux, decodeJSON/writeError, identity-from-context shape,
// generalized from the experiment/run domain to workflows/runs.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/platform/auth"
	"github.com/flowforge/durableflow/internal/repo"
	"github.com/flowforge/durableflow/internal/topo"
	"github.com/flowforge/durableflow/internal/validate"
)

// RunStarter is the subset of *executor.RunExecutor the API needs: fire
// a freshly created run's execution without blocking the HTTP response
// on it completing.
type RunStarter interface {
	Run(ctx context.Context, runID string)
}

type API struct {
	logger *slog.Logger

	workflows repo.WorkflowRepository
	runs      repo.RunRepository
	steps     repo.StepRepository
	db        repo.DB
	runner    RunStarter

	now    func() time.Time
	newID  func() string
}

func New(logger *slog.Logger, workflows repo.WorkflowRepository, runs repo.RunRepository, steps repo.StepRepository, db repo.DB, runner RunStarter) *API {
	return &API{
		logger:    logger,
		workflows: workflows,
		runs:      runs,
		steps:     steps,
		db:        db,
		runner:    runner,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Register mounts every route this service exposes onto mux, except
// /healthz and /readyz, which cmd/workflowd wires directly from
// internal/platform/httpserver.
func (api *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /workflows", api.handleCreateWorkflow)
	mux.HandleFunc("GET /workflows", api.handleListWorkflows)
	mux.HandleFunc("GET /workflows/{id}", api.handleGetWorkflow)

	mux.HandleFunc("POST /workflows/{id}/runs", api.handleCreateRun)
	mux.HandleFunc("GET /runs", api.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", api.handleGetRun)
}

type createWorkflowRequest struct {
	Name  string                  `json:"name"`
	Steps []domain.StepDefinition `json:"steps"`
}

type workflowResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (api *API) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req createWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.writeError(w, r, http.StatusBadRequest, "name_required")
		return
	}

	def := domain.Definition{Name: name, Steps: req.Steps}
	if err := validate.Definition(def); err != nil {
		api.writeValidationError(w, r, err)
		return
	}
	// Sort is the authoritative cycle check; Definition already rejected
	// cycles, but a workflow is never persisted on a path that skips it.
	if _, err := topo.Sort(req.Steps); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_dependency_graph")
		return
	}

	blob, err := json.Marshal(def)
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	workflow := domain.Workflow{
		ID:             api.newID(),
		Name:           name,
		DefinitionBlob: blob,
		CreatedAt:      api.now(),
	}
	if err := api.workflows.Create(r.Context(), workflow); err != nil {
		api.logger.ErrorContext(r.Context(), "create workflow failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.writeJSON(w, http.StatusCreated, workflowResponse{ID: workflow.ID, Name: workflow.Name, CreatedAt: workflow.CreatedAt})
}

func (api *API) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := api.workflows.List(r.Context())
	if err != nil {
		api.logger.ErrorContext(r.Context(), "list workflows failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make([]workflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		out = append(out, workflowResponse{ID: wf.ID, Name: wf.Name, CreatedAt: wf.CreatedAt})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"workflows": out})
}

type workflowDetailResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Steps     []domain.StepDefinition `json:"steps"`
	CreatedAt time.Time               `json:"created_at"`
}

func (api *API) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	workflow, err := api.workflows.Get(r.Context(), id)
	if err != nil {
		api.writeStoreError(w, r, err, "workflow_not_found")
		return
	}
	def, err := workflow.Definition()
	if err != nil {
		api.logger.ErrorContext(r.Context(), "parse stored workflow definition failed", "workflow_id", id, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	api.writeJSON(w, http.StatusOK, workflowDetailResponse{
		ID: workflow.ID, Name: workflow.Name, Steps: def.Steps, CreatedAt: workflow.CreatedAt,
	})
}

type createRunRequest struct {
	OrderID string `json:"order_id,omitempty"`
}

type runResponse struct {
	ID          string     `json:"id"`
	WorkflowID  string     `json:"workflow_id"`
	OrderID     *string    `json:"order_id,omitempty"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func runToResponse(run domain.Run) runResponse {
	return runResponse{
		ID: run.ID, WorkflowID: run.WorkflowID, OrderID: run.OrderID, Status: run.Status.String(),
		StartedAt: run.StartedAt, CompletedAt: run.CompletedAt, CreatedAt: run.CreatedAt,
	}
}

// handleCreateRun persists the run and its step rows in topological
// order, then hands execution to the Run Executor in the background:
// the HTTP response reports the run as accepted and pending, not its
// eventual outcome, matching the asynchronous execution model.
func (api *API) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	workflow, err := api.workflows.Get(r.Context(), workflowID)
	if err != nil {
		api.writeStoreError(w, r, err, "workflow_not_found")
		return
	}

	var req createRunRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			api.writeError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}
	}

	def, err := workflow.Definition()
	if err != nil {
		api.logger.ErrorContext(r.Context(), "parse stored workflow definition failed", "workflow_id", workflowID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	ordered, err := topo.Sort(def.Steps)
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "invalid_dependency_graph")
		return
	}

	now := api.now()
	run := domain.Run{
		ID:         api.newID(),
		WorkflowID: workflowID,
		Status:     domain.RunPending,
		CreatedAt:  now,
	}
	if orderID := strings.TrimSpace(req.OrderID); orderID != "" {
		run.OrderID = &orderID
	}

	steps := make([]domain.Step, 0, len(ordered))
	for i, stepDef := range ordered {
		steps = append(steps, domain.Step{
			ID:         api.newID(),
			RunID:      run.ID,
			StepID:     stepDef.ID,
			StepIndex:  i,
			Status:     domain.StepPending,
			MaxRetries: stepDef.Config.MaxRetries,
			CreatedAt:  now,
		})
	}

	if err := api.runs.Create(r.Context(), api.db, run); err != nil {
		api.logger.ErrorContext(r.Context(), "create run failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	if err := api.steps.CreateMany(r.Context(), api.db, steps); err != nil {
		api.logger.ErrorContext(r.Context(), "create run steps failed", "run_id", run.ID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	go api.runner.Run(context.Background(), run.ID)

	api.writeJSON(w, http.StatusAccepted, runToResponse(run))
}

func (api *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := api.runs.List(r.Context(), api.db)
	if err != nil {
		api.logger.ErrorContext(r.Context(), "list runs failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	type summaryResponse struct {
		runResponse
		WorkflowName string `json:"workflow_name"`
	}
	out := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryResponse{runResponse: runToResponse(s.Run), WorkflowName: s.WorkflowName})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (api *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := api.runs.Get(r.Context(), api.db, id)
	if err != nil {
		api.writeStoreError(w, r, err, "run_not_found")
		return
	}

	steps, err := api.steps.ListByRun(r.Context(), api.db, id)
	if err != nil {
		api.logger.ErrorContext(r.Context(), "list run steps failed", "run_id", id, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	type stepResponse struct {
		ID           string     `json:"id"`
		StepID       string     `json:"step_id"`
		StepIndex    int        `json:"step_index"`
		Status       string     `json:"status"`
		RetryCount   int        `json:"retry_count"`
		MaxRetries   int        `json:"max_retries"`
		StartedAt    *time.Time `json:"started_at,omitempty"`
		CompletedAt  *time.Time `json:"completed_at,omitempty"`
		ErrorMessage *string    `json:"error_message,omitempty"`
	}
	stepsOut := make([]stepResponse, 0, len(steps))
	for _, s := range steps {
		stepsOut = append(stepsOut, stepResponse{
			ID: s.ID, StepID: s.StepID, StepIndex: s.StepIndex, Status: s.Status.String(),
			RetryCount: s.RetryCount, MaxRetries: s.MaxRetries,
			StartedAt: s.StartedAt, CompletedAt: s.CompletedAt, ErrorMessage: s.ErrorMessage,
		})
	}

	type detailResponse struct {
		runResponse
		Steps []stepResponse `json:"steps"`
	}
	api.writeJSON(w, http.StatusOK, detailResponse{runResponse: runToResponse(run), Steps: stepsOut})
}

func (api *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFoundCode string) {
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		api.writeError(w, r, http.StatusNotFound, notFoundCode)
		return
	}
	api.logger.ErrorContext(r.Context(), "store operation failed", "error", err)
	api.writeError(w, r, http.StatusInternalServerError, "internal_error")
}

func (api *API) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		api.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "invalid_definition",
			"issues":     ve.Issues,
			"request_id": r.Header.Get("X-Request-Id"),
		})
		return
	}
	api.writeError(w, r, http.StatusBadRequest, "invalid_definition")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values in request body")
	}
	return nil
}

func (api *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *API) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

// RequireRole builds an auth.AuthorizeFunc enforcing per-method RBAC the
// way the teacher's auth.Middleware expects: GET/HEAD/OPTIONS need only
// viewer, everything else needs editor.
func RequireRole() auth.AuthorizeFunc {
	return func(r *http.Request, identity auth.Identity) error {
		required := auth.RequiredRoleForRequest(r)
		if !auth.HasAtLeast(identity.Roles, required) {
			return fmt.Errorf("%w: requires role %s", auth.ErrForbidden, required)
		}
		return nil
	}
}
