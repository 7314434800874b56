package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options shared by every command
type rootOptions struct {
	configPath   string
	logLevel     string
	indexVersion int
	printJSON    bool
}

// NewRootCmd builds the imagepick command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "imagepick [dir]",
		Short: "Pick and compress images from a folder tree",
		Long: `imagepick indexes the images under a directory, groups them by folder
and lets you pick a selection interactively. When you finish with d, the
selection is compressed and the resulting paths are printed.`,
		Example: `  # Pick from ~/Pictures (or root_dir from the config file)
  imagepick

  # Pick from a specific directory and print JSON
  imagepick ~/Photos/2024 --json`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: <dir>/.imagepick.toml, then the user config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.IntVar(&opts.indexVersion, "index-version", 0, "Media index version: 1 filters per query, 2 filters while scanning")
	flags.BoolVar(&opts.printJSON, "json", false, "Print results as JSON")

	cmd.AddCommand(newFoldersCmd(opts))
	cmd.AddCommand(newListCmd(opts))

	return cmd
}
