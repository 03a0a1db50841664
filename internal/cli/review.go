package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/session"
	"github.com/conorfennell/studyforge/internal/sm2"
)

func newReviewCmd(a *app) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review the cards due today",
		Long: "Shows each due card's question, reveals the answer on Enter and " +
			"reads a 0-5 rating. Failed cards come back at the end of the " +
			"session. End input (Ctrl-D) to stop early.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			s, err := session.Start(cmd.Context(), db, session.Options{
				Limit:      a.cfg.ReviewLimit,
				Topic:      topic,
				Interleave: a.cfg.Interleave,
				Rand:       a.rng(),
				Now:        a.now,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if s.Done() {
				fmt.Fprintln(out, "No cards due. Come back tomorrow.")
				return nil
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			for !s.Done() {
				card, _ := s.Current()
				fmt.Fprintf(out, "\n[%d/%d]", s.Position()+1, s.Len())
				if card.Topic != "" {
					fmt.Fprintf(out, " %s", card.Topic)
				}
				fmt.Fprintf(out, "\nQ: %s\n(press Enter to reveal)", card.Question)
				if !in.Scan() {
					break
				}
				fmt.Fprintf(out, "A: %s\n", card.Answer)

				rating, ok := promptRating(in, out)
				if !ok {
					break
				}
				res, err := s.Rate(cmd.Context(), rating)
				if err != nil {
					return err
				}
				if res.Requeued {
					fmt.Fprintln(out, "Again at the end of this session.")
				} else {
					fmt.Fprintf(out, "Next review %s (in %d days)\n", res.Card.Schedule.NextReview, res.Card.Schedule.Interval)
				}
			}
			if err := in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			sum := s.Summary()
			fmt.Fprintf(out, "\nReviewed %d cards, %d failed, across %d topics.\n", sum.Reviewed, sum.Failed, sum.Topics)
			if !s.Done() {
				fmt.Fprintf(out, "%d cards left for later.\n", s.Remaining())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only review cards of this topic")
	return cmd
}

// promptRating asks for a rating until it reads a number. Numbers outside
// 0-5 are clamped. It reports false at end of input.
func promptRating(in *bufio.Scanner, out io.Writer) (sm2.Rating, bool) {
	for {
		fmt.Fprint(out, "Rate:")
		for _, r := range sm2.Ratings {
			fmt.Fprintf(out, " %d=%s", r, r.Label())
		}
		fmt.Fprint(out, "\n> ")
		if !in.Scan() {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil {
			fmt.Fprintln(out, "Enter a number from 0 to 5.")
			continue
		}
		return sm2.Clamp(n), true
	}
}
