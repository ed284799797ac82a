package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storesync/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued mutations",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync status and queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(svc api.Service, _ serviceMode) error {
				status, err := svc.Status(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range renderSyncStatus(status, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var states []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued mutations in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStates(states)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, false, func(svc api.Service, _ serviceMode) error {
				items, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				items = filterItems(items, filter)
				if asJSON {
					if items == nil {
						items = []api.QueueItem{}
					}
					return writeJSON(cmd, api.QueueListResponse{Items: items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Type", "State", "Retries", "Age", "Last Error"},
					buildQueueListRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state: pending, retrying, failed (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one queued mutation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(svc api.Service, _ serviceMode) error {
				id, err := resolveID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				item, err := svc.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("mutation %s not found", id)
				}
				if asJSON {
					return writeJSON(cmd, item)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %s\n", item.ID)
				fmt.Fprintf(out, "Type:       %s\n", item.Type)
				fmt.Fprintf(out, "State:      %s\n", titleCase(item.State))
				fmt.Fprintf(out, "Retries:    %d/%d\n", item.RetryCount, item.MaxRetries)
				fmt.Fprintf(out, "Created:    %s (%s ago)\n", item.CreatedAt, formatAge(item.AgeSeconds))
				if item.LastError != "" {
					fmt.Fprintf(out, "Last error: %s\n", item.LastError)
				}
				fmt.Fprintf(out, "Params:     %s\n", string(item.Params))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the item as JSON")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove queued mutations by id or unique id prefix",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(svc api.Service, _ serviceMode) error {
				out := cmd.OutOrStdout()
				var missing []string
				for _, arg := range args {
					id, err := resolveID(cmd.Context(), svc, arg)
					if err != nil {
						return err
					}
					removed, err := svc.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !removed {
						missing = append(missing, arg)
						continue
					}
					fmt.Fprintf(out, "Removed %s\n", id)
				}
				if len(missing) > 0 {
					return fmt.Errorf("not queued: %s", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove every permanently failed mutation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(svc api.Service, _ serviceMode) error {
				removed, err := svc.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s failed mutations\n", formatCount(removed))
				return nil
			})
		},
	}
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Type,
			titleCase(item.State),
			strconv.Itoa(item.RetryCount) + "/" + strconv.Itoa(item.MaxRetries),
			formatAge(item.AgeSeconds),
			truncate(item.LastError, 48),
		})
	}
	return rows
}

func parseStates(values []string) (map[string]bool, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]bool, len(values))
	for _, value := range values {
		state := strings.ToLower(strings.TrimSpace(value))
		switch state {
		case api.StatePending, api.StateRetrying, api.StateFailed:
			out[state] = true
		case "":
		default:
			return nil, fmt.Errorf("unknown state %q (want pending, retrying, or failed)", value)
		}
	}
	return out, nil
}

func filterItems(items []api.QueueItem, states map[string]bool) []api.QueueItem {
	if len(states) == 0 {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if states[item.State] {
			out = append(out, item)
		}
	}
	return out
}

// resolveID expands a unique id prefix to a full id.
// Arguments that match nothing are returned unchanged.
func resolveID(ctx context.Context, svc api.Service, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("mutation id is required")
	}
	items, err := svc.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, item := range items {
		if item.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(item.ID, arg) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}
