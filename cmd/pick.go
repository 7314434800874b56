package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"imagepick/internal/logging"
	"imagepick/internal/ui"
)

// runPicker runs the interactive picker and prints the compressed selection
func runPicker(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, opts, args, true)
	if err != nil {
		return err
	}
	defer s.Close()

	model := ui.NewModel(ctx, s.coord, s.cfg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	stop := ui.Forward(p, s.coord)
	defer stop()

	logging.Info("Starting UI for %s", s.root)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			logging.Info("UI interrupted")
			return nil
		}
		logging.Error("Error running program: %v", err)
		return fmt.Errorf("error running program: %w", err)
	}
	logging.Info("UI exited normally")

	images, done, err := model.Result()
	if !done {
		return nil
	}
	if err != nil {
		// The list is still complete; interrupted images keep their originals
		logging.Warn("Compression incomplete: %v", err)
	}
	return printImages(cmd.OutOrStdout(), images, s.cfg.UISettings.PrintJSON)
}
