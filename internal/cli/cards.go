package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/cardid"
	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/conorfennell/studyforge/internal/review"
	"github.com/conorfennell/studyforge/internal/sm2"
	"github.com/conorfennell/studyforge/internal/storage"
)

// shortID trims a content hash for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// oneLine flattens a multi-line field for tables.
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func newAddCmd(a *app) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "add <question> <answer>",
		Short: "Add a card, due for review today",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			now := a.now()
			card := domain.Card{
				Question:  strings.TrimSpace(args[0]),
				Answer:    strings.TrimSpace(args[1]),
				Topic:     strings.TrimSpace(topic),
				Schedule:  sm2.DefaultParams().NewSchedule(domain.DateOf(now)),
				CreatedAt: now,
			}
			if card.Question == "" {
				return errors.New("question must not be empty")
			}
			card.ID = cardid.For(card)

			if err := db.AddCard(cmd.Context(), card); err != nil {
				if errors.Is(err, storage.ErrCardExists) {
					return fmt.Errorf("card %s already exists", shortID(card.ID))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %s\n", shortID(card.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic the card belongs to")
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	var (
		limit int
		topic string
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due for review today",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.ReviewLimit
			}
			var cards []domain.Card
			if topic != "" {
				cards, err = db.CardsForTopic(cmd.Context(), topic)
			} else {
				cards, err = db.AllCards(cmd.Context())
			}
			if err != nil {
				return err
			}
			due := review.SelectDue(cards, a.today(), limit)

			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintln(out, "No cards due.")
				return nil
			}
			fmt.Fprintf(out, "%-12s  %-10s  %-16s  %s\n", "ID", "DUE", "TOPIC", "QUESTION")
			for _, c := range due {
				fmt.Fprintf(out, "%-12s  %-10s  %-16s  %s\n",
					shortID(c.ID), c.Schedule.NextReview, oneLine(c.Topic, 16), oneLine(c.Question, 60))
			}
			fmt.Fprintf(out, "\n%d due across %d topics\n", len(due), len(review.Topics(due)))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum cards listed (defaults to review-limit)")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only list cards of this topic")
	return cmd
}
