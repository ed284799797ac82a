package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storesync/internal/api"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay queued mutations against the backend now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(svc api.Service, _ serviceMode) error {
				resp, err := svc.Process(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				for _, line := range describeProcess(resp) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the pass result as JSON")
	return cmd
}

func describeProcess(resp api.ProcessResponse) []string {
	res := resp.Result
	switch {
	case res.Skipped:
		return []string{"Another process is draining the queue; nothing done"}
	case res.NoActor:
		return []string{fmt.Sprintf("Backend unavailable; %s mutations remain queued", formatCount(resp.Queue.Total))}
	case res.Snapshot == 0:
		return []string{"Queue is empty"}
	}
	lines := []string{
		fmt.Sprintf("Replayed %s of %s mutations", formatCount(res.Succeeded), formatCount(res.Snapshot)),
	}
	if res.Retryable > 0 {
		lines = append(lines, fmt.Sprintf("%s will be retried on the next sync", formatCount(res.Retryable)))
	}
	if res.Permanent > 0 {
		lines = append(lines, fmt.Sprintf("%s failed permanently and must be removed manually", formatCount(res.Permanent)))
	}
	if res.Aborted {
		lines = append(lines, "Pass interrupted before the queue was drained")
	}
	status := titleCase(resp.Sync.Status)
	if resp.Sync.LastError != nil && *resp.Sync.LastError != "" {
		status += ": " + *resp.Sync.LastError
	}
	return append(lines, "Status: "+status)
}
