package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepcut-desktop/internal/artifact"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
	"deepcut-desktop/internal/orchestrator"
	"deepcut-desktop/internal/shell"
)

const cliWindow ipc.WindowID = "cli"

// noWindows is the shell host for a terminal session.
type noWindows struct{}

func (noWindows) CreateWindow(cfg shell.WindowConfig) error {
	return fmt.Errorf("%s windows are not available in the terminal", cfg.Kind)
}

func (noWindows) CloseWindow(ipc.WindowID) error { return nil }

func newSubmitCmd(opts *options) *cobra.Command {
	var in orchestrator.Input
	var mode string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run one deep cut batch and save its log",
		Example: `  # Process every question of two books
  deepcutctl submit --book-ids "12, 7"

  # Sample three questions per book
  deepcutctl submit --book-ids 12 --mode random --count 3

  # Process every book under a parent organization within a date range
  deepcutctl submit --org-ids 5 --start 2024-01-01 --end 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, settings, err := opts.client()
			if err != nil {
				return err
			}
			in.Mode = domain.ProcessingMode(mode)

			bus := ipc.NewBus(20)
			sh := shell.New(bus, noWindows{}, artifact.NewWriter(settings.LogDir), shell.Factories{})
			runner := orchestrator.New(cliWindow, client, bus)
			sh.RegisterWindow(shell.WindowConfig{ID: cliWindow, Kind: shell.WindowKindMain}, runner.HandleMessage)

			if _, err := runner.SubmitProcessing(cmd.Context(), in); err != nil {
				return userError(err)
			}

			view := runner.View()
			fmt.Fprintln(cmd.OutOrStdout(), view.ResultsText)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.BookIDsText, "book-ids", "", "Comma-separated book IDs")
	cmd.Flags().StringVar(&in.OrgIDsText, "org-ids", "", "Comma-separated parent organization IDs")
	cmd.Flags().StringVar(&mode, "mode", string(domain.ProcessingModeExhaustive), "Book processing mode (exhaustive or random)")
	cmd.Flags().StringVar(&in.CountText, "count", "", "Questions per book in random mode")
	cmd.Flags().StringVar(&in.StartDate, "start", "", "Start date (YYYY-MM-DD) for organization runs")
	cmd.Flags().StringVar(&in.EndDate, "end", "", "End date (YYYY-MM-DD) for organization runs")

	return cmd
}
