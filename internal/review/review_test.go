package review

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/conorfennell/studyforge/internal/domain"
)

const today = domain.Date("2024-01-10")

func card(id string, next domain.Date) domain.Card {
	return domain.Card{ID: id, Schedule: domain.Schedule{EasinessFactor: 2.5, NextReview: next}}
}

func ids(cards []domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestSelectDue(t *testing.T) {
	cards := []domain.Card{
		card("a", "2024-01-10"),
		card("b", "2024-01-11"),
		card("c", "2024-01-02"),
		card("d", "2024-01-10"),
		card("e", "2023-12-31"),
		card("f", "2024-02-01"),
	}

	testCases := []struct {
		name  string
		limit int
		want  []string
	}{
		{"unbounded", 0, []string{"e", "c", "a", "d"}},
		{"negative limit is unbounded", -1, []string{"e", "c", "a", "d"}},
		{"limited", 3, []string{"e", "c", "a"}},
		{"limit above count", 10, []string{"e", "c", "a", "d"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(SelectDue(cards, today, tc.limit))
			if !slices.Equal(got, tc.want) {
				t.Errorf("SelectDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectDueNeverReturnsFutureCards(t *testing.T) {
	var cards []domain.Card
	for i := -20; i <= 20; i++ {
		cards = append(cards, card(string(rune('A'+i+20)), today.AddDays(i)))
	}
	for _, c := range SelectDue(cards, today, 0) {
		if c.Schedule.NextReview.After(today) {
			t.Errorf("SelectDue returned card %s due %s, after %s", c.ID, c.Schedule.NextReview, today)
		}
	}
	if n := len(SelectDue(cards, today, 0)); n != 21 {
		t.Errorf("Expected 21 due cards, got %d", n)
	}
}

func TestSelectDueDoesNotMutateInput(t *testing.T) {
	cards := []domain.Card{card("late", "2024-01-09"), card("early", "2024-01-01")}
	SelectDue(cards, today, 0)
	if cards[0].ID != "late" {
		t.Error("SelectDue reordered its input slice")
	}
}

func TestInterleavePreservesCards(t *testing.T) {
	cards := []domain.Card{
		{ID: "1", Topic: "history"}, {ID: "2", Topic: "history"},
		{ID: "3", Topic: "law"}, {ID: "4", Topic: "law"},
		{ID: "5", Topic: "biology"},
	}

	t.Run("seeded", func(t *testing.T) {
		got := Interleave(cards, rand.New(rand.NewPCG(1, 2)))
		gotIDs, wantIDs := ids(got), ids(cards)
		slices.Sort(gotIDs)
		if !slices.Equal(gotIDs, wantIDs) {
			t.Errorf("Interleave changed the set of cards: %v", gotIDs)
		}
	})

	t.Run("seed is reproducible", func(t *testing.T) {
		a := ids(Interleave(cards, rand.New(rand.NewPCG(7, 7))))
		b := ids(Interleave(cards, rand.New(rand.NewPCG(7, 7))))
		if !slices.Equal(a, b) {
			t.Errorf("Expected identical order for identical seeds, got %v and %v", a, b)
		}
	})

	t.Run("global source", func(t *testing.T) {
		if n := len(Interleave(cards, nil)); n != len(cards) {
			t.Errorf("Expected %d cards, got %d", len(cards), n)
		}
	})

	if cards[0].ID != "1" || cards[4].ID != "5" {
		t.Error("Interleave shuffled its input slice in place")
	}
}

func TestTopics(t *testing.T) {
	cards := []domain.Card{{Topic: "law"}, {Topic: "history"}, {Topic: "law"}, {Topic: ""}}
	got := Topics(cards)
	want := []string{"law", "history", ""}
	if !slices.Equal(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
}

func TestForecastEmpty(t *testing.T) {
	f := Forecast(nil, today, 7)
	if len(f) != 7 {
		t.Fatalf("Expected 7 entries, got %d", len(f))
	}
	for d, n := range f {
		if n != 0 {
			t.Errorf("Expected 0 on %s, got %d", d, n)
		}
	}
	days := f.Days()
	if days[0] != today || days[6] != "2024-01-16" {
		t.Errorf("Unexpected window %v", days)
	}
}

func TestForecastFoldsOverdueIntoToday(t *testing.T) {
	f := Forecast([]domain.Card{card("old", "2024-01-01")}, today, 30)
	if f[today] != 1 {
		t.Errorf("Expected the overdue card under %s, got %d", today, f[today])
	}
	if _, ok := f["2024-01-01"]; ok {
		t.Error("Forecast must not create buckets in the past")
	}
	if f.Total() != 1 {
		t.Errorf("Expected total 1, got %d", f.Total())
	}
}

func TestForecastConservation(t *testing.T) {
	var cards []domain.Card
	for i := -15; i < 45; i++ {
		cards = append(cards, card("", today.AddDays(i)), card("", today.AddDays(i/2)))
	}

	for _, days := range []int{1, 7, 30} {
		f := Forecast(cards, today, days)
		end := today.AddDays(days)
		want := 0
		for _, c := range cards {
			if c.Schedule.NextReview.Before(end) {
				want++
			}
		}
		if f.Total() != want {
			t.Errorf("days=%d: Total() = %d, want %d", days, f.Total(), want)
		}
		if len(f) != days {
			t.Errorf("days=%d: expected %d buckets, got %d", days, days, len(f))
		}
	}
}

func TestForecastWindowEdges(t *testing.T) {
	cards := []domain.Card{
		card("today", today),
		card("last", today.AddDays(6)),
		card("beyond", today.AddDays(7)),
		card("blank", ""),
	}
	f := Forecast(cards, today, 7)
	if f[today] != 1 || f[today.AddDays(6)] != 1 {
		t.Errorf("Unexpected counts %v", f)
	}
	if f.Total() != 2 {
		t.Errorf("Expected cards beyond the window to be dropped, total %d", f.Total())
	}
	if f.Peak() != 1 {
		t.Errorf("Peak() = %d, want 1", f.Peak())
	}
}

func TestForecastNonPositiveDays(t *testing.T) {
	if f := Forecast([]domain.Card{card("x", "2024-01-01")}, today, 0); len(f) != 0 {
		t.Errorf("Expected an empty forecast, got %v", f)
	}
	if f := Forecast(nil, today, -3); len(f) != 0 {
		t.Errorf("Expected an empty forecast, got %v", f)
	}
}
