// Command workflowctl is a thin HTTP client for workflowd: submit workflow
// definitions, start runs, and inspect their progress from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var server string
	var token string

	cmd := &cobra.Command{
		Use:           "workflowctl",
		Short:         "workflowctl talks to a workflowd HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&server, "server", envOr("WORKFLOWCTL_SERVER", "http://localhost:8080"), "workflowd base URL")
	cmd.PersistentFlags().StringVar(&token, "token", os.Getenv("WORKFLOWCTL_TOKEN"), "bearer token for Authorization header")

	newClient := func() *apiClient { return newAPIClient(server, token) }

	cmd.AddCommand(newGetRunCommand(newClient))
	cmd.AddCommand(newGetWorkflowCommand(newClient))
	cmd.AddCommand(newListRunsCommand(newClient))
	cmd.AddCommand(newListWorkflowsCommand(newClient))
	cmd.AddCommand(newStartRunCommand(newClient))
	cmd.AddCommand(newSubmitWorkflowCommand(newClient))

	return cmd
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
