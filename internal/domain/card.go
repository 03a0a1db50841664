package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schedule is the spaced-repetition state of a card.
type Schedule struct {
	EasinessFactor float64 `validate:"gte=1.3"`
	Interval       int     `validate:"gte=0"` // days
	Repetitions    int     `validate:"gte=0"` // consecutive passes since the last failure
	NextReview     Date    `validate:"required,datetime=2006-01-02"`
}

// Validate reports whether the schedule satisfies the card invariants.
func (s Schedule) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// Card represents a single question-answer entry and its schedule.
type Card struct {
	ID        string
	Question  string
	Answer    string
	Topic     string
	SourceID  int64 // 0 when the card was added by hand
	Schedule  Schedule
	CreatedAt time.Time
}

// Due reports whether the card should be reviewed on the given day.
func (c Card) Due(today Date) bool {
	return c.Schedule.NextReview != "" && !c.Schedule.NextReview.After(today)
}

// ReviewLog records a single review event for a card.
// Rating is on the 0-5 scale: 0-2 failed recall, 3-5 successful recall.
type ReviewLog struct {
	CardID    string
	Timestamp time.Time
	Rating    int
}
