package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storesync/internal/api"
	"storesync/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var params []string
	var asJSON bool

	types := make([]string, 0, len(queue.AllTypes()))
	for _, t := range queue.AllTypes() {
		types = append(types, string(t))
	}

	cmd := &cobra.Command{
		Use:   "submit <type>",
		Short: "Apply a mutation now, or queue it while the backend is unavailable",
		Long: "Submit a storefront mutation. Types: " + strings.Join(types, ", ") + ".\n" +
			"Parameters are passed as --param key=value; productIds takes a comma separated list.",
		Example: `  storesync submit createOrder --param productIds=1,2 --param totalAmount=4500
  storesync submit assignAdminRole --param principal=aaaaa-bbbbb`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: types,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			req := api.SubmitRequest{Type: args[0], Params: parsed}
			return ctx.withService(cmd, true, func(svc api.Service, _ serviceMode) error {
				resp, err := svc.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if resp.Queued {
					fmt.Fprintf(cmd.OutOrStdout(), "Backend unavailable; queued %s as %s\n", req.Type, resp.MutationID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", req.Type)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Mutation parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

func parseParams(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", value)
		}
		if _, dup := out[key]; dup {
			return nil, errors.New("duplicate --param " + key)
		}
		out[key] = val
	}
	return out, nil
}
