// Package review selects due cards and projects upcoming review load.
package review

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/conorfennell/studyforge/internal/domain"
)

// SelectDue returns the cards due on or before today, oldest-due first.
// Cards due on the same day keep their input order. A limit of zero or less
// means no limit.
func SelectDue(cards []domain.Card, today domain.Date, limit int) []domain.Card {
	due := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if c.Due(today) {
			due = append(due, c)
		}
	}

	slices.SortStableFunc(due, func(a, b domain.Card) int {
		return strings.Compare(string(a.Schedule.NextReview), string(b.Schedule.NextReview))
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// Interleave returns a uniformly shuffled copy of cards, mixing topics.
// A nil rng uses the global source.
func Interleave(cards []domain.Card, rng *rand.Rand) []domain.Card {
	out := slices.Clone(cards)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}

// Topics returns the distinct topics of cards in first-seen order.
func Topics(cards []domain.Card) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, c := range cards {
		if !seen[c.Topic] {
			seen[c.Topic] = true
			topics = append(topics, c.Topic)
		}
	}
	return topics
}
