package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

func TestWorkflowStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewWorkflowStore(db)
	workflow := domain.Workflow{ID: "wf-1", Name: "ship-order", DefinitionBlob: []byte(`{"name":"ship-order","steps":[]}`), CreatedAt: time.Now()}

	mock.ExpectExec(`INSERT INTO workflows`).
		WithArgs(workflow.ID, workflow.Name, workflow.DefinitionBlob, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Create(context.Background(), workflow); err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWorkflowStoreCreateRejectsInvalid(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewWorkflowStore(db)
	if err := store.Create(context.Background(), domain.Workflow{}); err == nil {
		t.Fatal("Create() = nil, want validation error")
	}
}

func TestWorkflowStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewWorkflowStore(db)
	mock.ExpectQuery(`SELECT id, name, definition, created_at FROM workflows`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = store.Get(context.Background(), "missing")
	if err != repo.ErrNotFound {
		t.Fatalf("Get() err=%v, want repo.ErrNotFound", err)
	}
}

func TestWorkflowStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewWorkflowStore(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at"}).
		AddRow("wf-2", "newer", now).
		AddRow("wf-1", "older", now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT id, name, created_at FROM workflows`).WillReturnRows(rows)

	out, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(out) != 2 || out[0].ID != "wf-2" {
		t.Fatalf("List() = %+v, want wf-2 first", out)
	}
}

func TestRunStoreCreateAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewRunStore()
	run := domain.Run{ID: "run-1", WorkflowID: "wf-1", Status: domain.RunPending, CreatedAt: time.Now()}

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, run.WorkflowID, sqlmock.AnyArg(), run.Status.String(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := store.Create(context.Background(), db, run); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "workflow_id", "order_id", "status", "started_at", "completed_at", "created_at"}).
		AddRow(run.ID, run.WorkflowID, nil, domain.RunRunning.String(), now, nil, now)
	mock.ExpectQuery(`SELECT id, workflow_id, order_id, status, started_at, completed_at, created_at\s+FROM runs WHERE id = \$1`).
		WithArgs(run.ID).
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), db, run.ID)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if got.Status != domain.RunRunning {
		t.Fatalf("Get().Status = %v, want running", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunStoreUpdateNotFoundWhenNoRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewRunStore()
	mock.ExpectExec(`UPDATE runs SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.Update(context.Background(), db, "missing", repo.RunUpdate{Status: domain.RunCompleted})
	if err != repo.ErrNotFound {
		t.Fatalf("Update() err=%v, want repo.ErrNotFound", err)
	}
}

func TestRunStoreListRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	defer db.Close()

	store := NewRunStore()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "workflow_id", "order_id", "status", "started_at", "completed_at", "created_at"}).
		AddRow("run-1", "wf-1", nil, domain.RunRunning.String(), now, nil, now)
	mock.ExpectQuery(`SELECT id, workflow_id, order_id, status, started_at, completed_at, created_at\s+FROM runs WHERE status = \$1`).
		WithArgs(domain.RunRunning.String()).
		WillReturnRows(rows)

	out, err := store.ListRunning(context.Background(), db)
	if err != nil {
		t.Fatalf("ListRunning() err=%v", err)
	}
	if len(out) != 1 || out[0].ID != "run-1" {
		t.Fatalf("ListRunning() = %+v", out)
	}
}
