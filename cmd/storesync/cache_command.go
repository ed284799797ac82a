package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storesync/internal/api"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show which storefront views replay has invalidated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(svc api.Service, mode serviceMode) error {
				entries, err := svc.Cache(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.CacheResponse{Entries: entries})
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					if mode == modeLocal {
						fmt.Fprintln(out, "No daemon running; invalidations are tracked by the daemon only")
						return nil
					}
					fmt.Fprintln(out, "No views invalidated yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						string(entry.Key),
						strconv.FormatUint(entry.Generation, 10),
						entry.InvalidatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprint(out, renderTable([]string{"View", "Generation", "Invalidated"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}
