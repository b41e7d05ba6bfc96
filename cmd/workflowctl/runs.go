package main

import (
	"time"

	"github.com/spf13/cobra"
)

type runResponse struct {
	ID          string     `json:"id"`
	WorkflowID  string     `json:"workflow_id"`
	OrderID     *string    `json:"order_id,omitempty"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type runSummaryResponse struct {
	runResponse
	WorkflowName string `json:"workflow_name"`
}

type stepStatusResponse struct {
	StepID       string     `json:"step_id"`
	StepIndex    int        `json:"step_index"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

type runDetailResponse struct {
	runResponse
	Steps []stepStatusResponse `json:"steps"`
}

func newStartRunCommand(newClient func() *apiClient) *cobra.Command {
	var orderID string
	cmd := &cobra.Command{
		Use:   "start-run [workflow-id]",
		Short: "Start a run of a workflow, optionally linked to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := struct {
				OrderID string `json:"order_id,omitempty"`
			}{OrderID: orderID}

			var out runResponse
			if err := newClient().postJSON("/workflows/"+args[0]+"/runs", req, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "order ID to link this run to")
	return cmd
}

func newListRunsCommand(newClient func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "list-runs",
		Short: "List runs across all workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Runs []runSummaryResponse `json:"runs"`
			}
			if err := newClient().getJSON("/runs", &out); err != nil {
				return err
			}
			return printJSON(cmd, out.Runs)
		},
	}
}

func newGetRunCommand(newClient func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "get-run [id]",
		Short: "Show a run's status and per-step progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out runDetailResponse
			if err := newClient().getJSON("/runs/"+args[0], &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}
