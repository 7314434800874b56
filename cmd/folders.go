package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagepick/internal/logging"
)

func newFoldersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "folders [dir]",
		Short: "Print the folders that contain pickable images",
		Example: `  imagepick folders ~/Pictures
  imagepick folders ~/Pictures --json`,
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

			s.coord.DeriveFolders(images)
			s.coord.Wait()

			folders, ok := s.coord.Folders.Latest()
			if !ok {
				return fmt.Errorf("no folders derived")
			}
			logging.Debug("Derived %d folders from %d images", len(folders), len(images))
			return printFolders(cmd.OutOrStdout(), folders, s.cfg.UISettings.PrintJSON)
		},
	}
}
