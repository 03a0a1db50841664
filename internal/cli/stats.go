package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/review"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's activity and the coming week's load",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			today := a.today()
			day, err := db.StatsFor(ctx, today)
			if err != nil {
				return err
			}
			total, err := db.TotalCards(ctx)
			if err != nil {
				return err
			}
			cards, err := db.AllCards(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today (%s)\n", today)
			fmt.Fprintf(out, "  reviewed  %d\n", day.CardsReviewed)
			fmt.Fprintf(out, "  added     %d\n", day.CardsAdded)
			fmt.Fprintf(out, "  due now   %d\n", len(review.SelectDue(cards, today, 0)))
			fmt.Fprintf(out, "  cards     %d\n", total)
			fmt.Fprintf(out, "\nNext %d days\n", a.cfg.DashboardDays)
			printForecast(out, review.Forecast(cards, today, a.cfg.DashboardDays))
			return nil
		},
	}
}
