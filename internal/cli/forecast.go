package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/conorfennell/studyforge/internal/review"
)

type forecastDay struct {
	Date domain.Date `json:"date"`
	Due  int         `json:"due"`
}

func newForecastCmd(a *app) *cobra.Command {
	var (
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show how many cards fall due each day",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("days") {
				days = a.cfg.ForecastDays
			}
			cards, err := db.AllCards(cmd.Context())
			if err != nil {
				return err
			}
			counts := review.Forecast(cards, a.today(), days)

			if asJSON {
				out := make([]forecastDay, 0, len(counts))
				for _, d := range counts.Days() {
					out = append(out, forecastDay{Date: d, Due: counts[d]})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printForecast(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", review.DefaultForecastDays, "Number of days to forecast (defaults to forecast-days)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the forecast as JSON")
	return cmd
}

// printForecast draws one bar per day, scaled to the busiest day.
func printForecast(w io.Writer, counts review.DueCounts) {
	const width = 40
	peak := counts.Peak()
	for _, d := range counts.Days() {
		n := counts[d]
		bar := 0
		if peak > 0 {
			bar = (n*width + peak - 1) / peak
		}
		fmt.Fprintf(w, "%s  %4d  %s\n", d, n, strings.Repeat("#", bar))
	}
	fmt.Fprintf(w, "total %d\n", counts.Total())
}
