package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/review"
)

func newPreviewCmd(opts *options) *cobra.Command {
	var bookID, index int

	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Show one processed question pair",
		Example: `  deepcutctl preview --book-id 12 --index 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, settings, err := opts.client()
			if err != nil {
				return err
			}

			resp, err := client.Preview(cmd.Context(), bookID, index)
			if err != nil {
				return userError(err)
			}
			pair := resp.Pair()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Kitap %d - Soru %d / %d\n", bookID, resp.CurrentIndex+1, resp.TotalCount)
			fmt.Fprintf(out, "Orijinal: %s\n", pair.BeforePath)
			fmt.Fprintf(out, "İşlenmiş: %s\n", pair.AfterPath)
			if dir := review.DisplayDir(pair.AfterPath, settings.ShareRoot, settings.PathSeparator); dir != "" {
				fmt.Fprintf(out, "Klasör: %s\n", dir)
			}
			if pair.IsMarkedFaulty {
				fmt.Fprintln(out, "Durum: hatalı olarak bildirilmiş")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bookID, "book-id", 0, "Book ID")
	cmd.Flags().IntVar(&index, "index", 0, "Zero-based question index")
	_ = cmd.MarkFlagRequired("book-id")

	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var report domain.FaultReport

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Flag a processed question pair as faulty",
		Example: `  deepcutctl report --before books/12/q0.png --after books/12/out/q0.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.client()
			if err != nil {
				return err
			}
			if err := client.ReportFault(cmd.Context(), report); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Hata bildirimi başarıyla gönderildi.")
			return nil
		},
	}

	cmd.Flags().StringVar(&report.BeforePath, "before", "", "Original image path as returned by preview")
	cmd.Flags().StringVar(&report.AfterPath, "after", "", "Processed image path as returned by preview")
	_ = cmd.MarkFlagRequired("before")
	_ = cmd.MarkFlagRequired("after")

	return cmd
}
