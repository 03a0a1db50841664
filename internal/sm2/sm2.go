// Package sm2 implements the SuperMemo-2 spaced-repetition scheduler.
package sm2

import (
	"math"

	"github.com/conorfennell/studyforge/internal/domain"
)

const (
	DefaultEasiness = 2.5
	MinEasiness     = 1.3
)

// Params holds the tunables of the scheduler.
type Params struct {
	InitialEasiness float64 // easiness factor of a brand-new card
	MinEasiness     float64 // floor applied after every update
	FirstInterval   int     // days after the first pass
	SecondInterval  int     // days after the second consecutive pass
	PassThreshold   Rating  // lowest rating counted as a pass
}

// DefaultParams returns the classic SM-2 settings.
func DefaultParams() *Params {
	return &Params{
		InitialEasiness: DefaultEasiness,
		MinEasiness:     MinEasiness,
		FirstInterval:   1,
		SecondInterval:  6,
		PassThreshold:   Okay,
	}
}

// NewSchedule returns the schedule of a card that has never been reviewed.
// It is due immediately.
func (p *Params) NewSchedule(today domain.Date) domain.Schedule {
	return domain.Schedule{
		EasinessFactor: p.InitialEasiness,
		Interval:       0,
		Repetitions:    0,
		NextReview:     today,
	}
}

// Next computes the schedule that follows a review of s with the given rating
// on day today. It never fails: the rating is clamped to 0-5 first.
func (p *Params) Next(s domain.Schedule, rating Rating, today domain.Date) domain.Schedule {
	r := Clamp(int(rating))
	ef := p.nextEasiness(s.EasinessFactor, r)

	if r < p.PassThreshold {
		return domain.Schedule{
			EasinessFactor: ef,
			Interval:       0,
			Repetitions:    0,
			NextReview:     today,
		}
	}

	// The interval depends on the repetition count before this review.
	var interval int
	switch s.Repetitions {
	case 0:
		interval = p.FirstInterval
	case 1:
		interval = p.SecondInterval
	default:
		interval = int(math.RoundToEven(float64(s.Interval) * ef))
	}

	return domain.Schedule{
		EasinessFactor: ef,
		Interval:       interval,
		Repetitions:    s.Repetitions + 1,
		NextReview:     today.AddDays(max(interval, 1)),
	}
}

// nextEasiness applies EF' = EF + (0.1 - (5-q)(0.08 + (5-q)0.02)), floored.
func (p *Params) nextEasiness(ef float64, r Rating) float64 {
	miss := float64(Easy - r)
	ef += 0.1 - miss*(0.08+miss*0.02)
	return math.Max(p.MinEasiness, ef)
}
