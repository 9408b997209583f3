package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/orchestrator"
)

// surveyRow is the first-question summary of one book.
type surveyRow struct {
	bookID domain.BookID
	total  int
	path   string
	err    error
}

// previewer is the slice of the client the survey needs.
type previewer interface {
	Preview(ctx context.Context, bookID domain.BookID, index int) (api.PreviewResponse, error)
}

func newSurveyCmd(opts *options) *cobra.Command {
	var bookIDsText string
	var concurrency int
	var rps float64

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Show question counts of several books",
		Long: `Fetch the first processed question of every listed book and print how many
questions each one has. Requests run in parallel and are paced so the service is not flooded.`,
		Example: `  deepcutctl survey --book-ids "12, 7, 33" --concurrency 2 --rps 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := orchestrator.ParsePreviewIDs(bookIDsText)
			if err != nil {
				return userError(err)
			}
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			rows, err := survey(cmd.Context(), client, ids, concurrency, rate.NewLimiter(rate.Limit(rps), 1))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, row := range rows {
				if row.err != nil {
					fmt.Fprintf(out, "Kitap %d: %s\n", row.bookID, api.Describe(row.err))
					continue
				}
				fmt.Fprintf(out, "Kitap %d: %d soru, ilk işlenmiş görsel %s\n", row.bookID, row.total, row.path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookIDsText, "book-ids", "", "Comma-separated book IDs")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Parallel preview requests")
	cmd.Flags().Float64Var(&rps, "rps", 5, "Preview requests per second")
	_ = cmd.MarkFlagRequired("book-ids")

	return cmd
}

// survey fetches question 0 of every book. Per-book failures are kept in the
// row; only cancellation aborts the run. Rows keep the order of ids.
func survey(ctx context.Context, client previewer, ids []domain.BookID, concurrency int, limiter *rate.Limiter) ([]surveyRow, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	rows := make([]surveyRow, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			resp, err := client.Preview(ctx, id, 0)
			rows[i] = surveyRow{bookID: id, total: resp.TotalCount, path: resp.Metadata.ProcessedPath, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
