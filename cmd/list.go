package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var bucket int64

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "Print the pickable images, optionally of one folder",
		Example: `  # Every image
  imagepick list ~/Pictures

  # Images of one folder, using an id printed by "imagepick folders"
  imagepick list ~/Pictures --bucket 7345012311`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx, opts, args, false)
			if err != nil {
				return err
			}
			defer s.Close()

			images, err := s.fetch(ctx)
			if err != nil {
				return err
			}

			var bucketID *int64
			if cmd.Flags().Changed("bucket") {
				bucketID = &bucket
			}
			s.coord.FilterImages(bucketID, images)
			s.coord.Wait()

			filtered, ok := s.coord.Images.Latest()
			if !ok {
				return fmt.Errorf("no images filtered")
			}
			return printImages(cmd.OutOrStdout(), filtered.Images, s.cfg.UISettings.PrintJSON)
		},
	}

	cmd.Flags().Int64Var(&bucket, "bucket", 0, "Only list images of this bucket id")
	return cmd
}
