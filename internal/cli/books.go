package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepcut-desktop/internal/orchestrator"
)

func newBooksCmd(opts *options) *cobra.Command {
	var orgIDs, start, end string

	cmd := &cobra.Command{
		Use:     "books",
		Short:   "List candidate books under parent organizations",
		Example: `  deepcutctl books --org-ids "5, 8" --start 2024-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := orchestrator.BuildSelectionFilter(orgIDs, start, end)
			if err != nil {
				return userError(err)
			}
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			ids, err := client.BooksByOrganization(cmd.Context(), filter)
			if err != nil {
				return userError(err)
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Bu kriterlere uygun kitap bulunamadı.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), orchestrator.FormatIDs(ids))
			return nil
		},
	}

	cmd.Flags().StringVar(&orgIDs, "org-ids", "", "Comma-separated parent organization IDs")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("org-ids")

	return cmd
}
