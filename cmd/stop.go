package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	var server, workspace string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the translation run of a running server",
		Long: `Asks a "serve" instance to stop its active translation run. The page in
flight is discarded and returns to pending.

A run started with "translate" in this terminal is stopped with Ctrl+C.`,
		Example: `  manhwa-translator stop --server http://localhost:8888`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reverted, err := stopRemote(cmd.Context(), server, workspace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped; %d page(s) returned to pending\n", len(reverted))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8888", "Base URL of the server")
	cmd.Flags().StringVar(&workspace, "workspace", "default", "Workspace to stop")
	return cmd
}

func stopRemote(ctx context.Context, server, workspace string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := strings.TrimSuffix(server, "/") + "/api/workspaces/" + workspace + "/stop"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Reverted []string `json:"reverted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Reverted, nil
}
