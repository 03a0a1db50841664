// Package session drives one sitting of flashcard review.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/conorfennell/studyforge/internal/review"
	"github.com/conorfennell/studyforge/internal/sm2"
	"github.com/google/uuid"
)

var ErrSessionDone = errors.New("session has no cards left")

// Store is the persistence the session reads cards from and writes reviews to.
// RecordReview must write the new schedule and the log entry as one unit.
type Store interface {
	DueCards(ctx context.Context, today domain.Date, limit int) ([]domain.Card, error)
	FindCard(ctx context.Context, id string) (*domain.Card, error)
	RecordReview(ctx context.Context, id string, s domain.Schedule, entry domain.ReviewLog) error
}

// Options configures a session.
type Options struct {
	Params     *sm2.Params      // nil means sm2.DefaultParams
	Limit      int              // maximum cards fetched; zero or less means all due
	Topic      string           // only review cards of this topic when set
	Interleave bool             // shuffle across topics
	Rand       *rand.Rand       // shuffle source; nil uses the global source
	Now        func() time.Time // nil means time.Now
	Logger     *slog.Logger     // nil means slog.Default
}

// Session holds the in-memory queue of cards for one sitting.
type Session struct {
	ID string

	store  Store
	params *sm2.Params
	now    func() time.Time
	logger *slog.Logger

	queue    []domain.Card
	pos      int
	reviewed int
	failed   int
}

// Result describes the outcome of rating one card.
type Result struct {
	Card     domain.Card // the card with its new schedule
	Rating   sm2.Rating  // the clamped rating that was recorded
	Requeued bool        // the card was failed and appended to the queue
}

// Summary totals a session.
type Summary struct {
	Reviewed int
	Failed   int
	Topics   int
}

// Start fetches the cards due today and returns a session over them.
func Start(ctx context.Context, store Store, opts Options) (*Session, error) {
	s := &Session{
		ID:     uuid.NewString(),
		store:  store,
		params: opts.Params,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if s.params == nil {
		s.params = sm2.DefaultParams()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "session", "session_id", s.ID)

	limit := opts.Limit
	if opts.Topic != "" {
		limit = 0
	}
	cards, err := store.DueCards(ctx, s.today(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due cards: %w", err)
	}
	if opts.Topic != "" {
		cards = slices.DeleteFunc(cards, func(c domain.Card) bool { return c.Topic != opts.Topic })
		if opts.Limit > 0 && len(cards) > opts.Limit {
			cards = cards[:opts.Limit]
		}
	}
	if opts.Interleave {
		cards = review.Interleave(cards, opts.Rand)
	}
	s.queue = cards

	s.logger.Info("review session started",
		"due", len(cards),
		"topics", len(review.Topics(cards)),
		"interleaved", opts.Interleave,
	)
	return s, nil
}

func (s *Session) today() domain.Date {
	return domain.DateOf(s.now())
}

// Current returns the card awaiting a rating.
func (s *Session) Current() (domain.Card, bool) {
	if s.Done() {
		return domain.Card{}, false
	}
	return s.queue[s.pos], true
}

// Done reports whether every queued card has been rated.
func (s *Session) Done() bool { return s.pos >= len(s.queue) }

// Position returns the zero-based index of the current card.
func (s *Session) Position() int { return s.pos }

// Len returns the number of cards queued so far, including re-queued failures.
func (s *Session) Len() int { return len(s.queue) }

// Remaining returns the number of cards still to be rated.
func (s *Session) Remaining() int { return len(s.queue) - s.pos }

// Rate schedules the current card with the learner's rating, records the
// review and moves on. A failed card is fetched again and put at the back of
// the queue so it comes round once more before the session ends.
func (s *Session) Rate(ctx context.Context, rating sm2.Rating) (Result, error) {
	card, ok := s.Current()
	if !ok {
		return Result{}, ErrSessionDone
	}

	r := sm2.Clamp(int(rating))
	now := s.now()
	today := domain.DateOf(now)
	next := s.params.Next(card.Schedule, r, today)

	entry := domain.ReviewLog{CardID: card.ID, Rating: int(r), Timestamp: now}
	if err := s.store.RecordReview(ctx, card.ID, next, entry); err != nil {
		return Result{}, fmt.Errorf("failed to record review of %s: %w", card.ID, err)
	}

	card.Schedule = next
	res := Result{Card: card, Rating: r}
	s.reviewed++
	s.pos++

	if r < s.params.PassThreshold {
		s.failed++
		fresh, err := s.store.FindCard(ctx, card.ID)
		if err != nil {
			return res, fmt.Errorf("failed to reload %s: %w", card.ID, err)
		}
		if fresh != nil && fresh.Due(today) {
			s.queue = append(s.queue, *fresh)
			res.Requeued = true
		}
	}

	s.logger.Debug("card reviewed",
		"card", card.ID,
		"rating", r.Label(),
		"interval", next.Interval,
		"next_review", next.NextReview,
		"requeued", res.Requeued,
	)
	return res, nil
}

// Summary returns the totals so far.
func (s *Session) Summary() Summary {
	return Summary{
		Reviewed: s.reviewed,
		Failed:   s.failed,
		Topics:   len(review.Topics(s.queue)),
	}
}
