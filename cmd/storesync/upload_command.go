package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storesync/internal/config"
	"storesync/internal/remote"
	"storesync/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an asset such as a product image to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Remote.BaseURL == "" {
				return errors.New("remote.base_url is not configured")
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			logger := ctx.logger(cfg)
			uploader := upload.NewUploader(remote.NewClientFromConfig(cfg, logger), logger)

			var opts []upload.Option
			if contentType != "" {
				opts = append(opts, upload.WithContentType(contentType))
			}
			errOut := cmd.ErrOrStderr()
			if shouldColorize(errOut) {
				opts = append(opts, upload.WithProgress(func(sent, total int64) {
					if total > 0 {
						fmt.Fprintf(errOut, "\rUploading... %3d%%", sent*100/total)
					}
				}))
			}

			future, err := uploader.StartFile(cmd.Context(), path, opts...)
			if err != nil {
				return err
			}
			res, err := future.Wait(cmd.Context())
			if shouldColorize(errOut) {
				fmt.Fprintln(errOut)
			}
			if err != nil {
				future.Cancel()
				return fmt.Errorf("upload %s: %w", path, err)
			}
			if asJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s bytes) to %s\n", res.Name, formatCount(int(res.Bytes)), res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "Override the detected content type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
