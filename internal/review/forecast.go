package review

import (
	"slices"

	"github.com/conorfennell/studyforge/internal/domain"
)

const (
	DefaultForecastDays  = 30
	DefaultDashboardDays = 7
)

// DueCounts maps each day of a forecast window to the number of cards due.
type DueCounts map[domain.Date]int

// Forecast counts, for each of the days starting today, how many cards fall
// due. Overdue cards are counted as due today; cards due after the window
// are not counted. A window of zero or fewer days is empty, so overdue cards
// are dropped too.
func Forecast(cards []domain.Card, today domain.Date, days int) DueCounts {
	counts := make(DueCounts, max(days, 0))
	if days <= 0 {
		return counts
	}
	for i := range days {
		counts[today.AddDays(i)] = 0
	}

	for _, c := range cards {
		next := c.Schedule.NextReview
		switch {
		case next == "":
			continue
		case next.Before(today):
			counts[today]++
		default:
			if _, ok := counts[next]; ok {
				counts[next]++
			}
		}
	}
	return counts
}

// Days returns the dates of the window in order.
func (f DueCounts) Days() []domain.Date {
	days := make([]domain.Date, 0, len(f))
	for d := range f {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}

// Total returns the number of cards counted across the window.
func (f DueCounts) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// Peak returns the largest single-day count.
func (f DueCounts) Peak() int {
	peak := 0
	for _, n := range f {
		peak = max(peak, n)
	}
	return peak
}
