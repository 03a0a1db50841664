package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/jmoiron/sqlx"
)

const cardColumns = `seq, id, question, answer, topic, source_id,
	easiness_factor, interval_days, repetitions, next_review, created_at`

// cardRow mirrors one row of the cards table.
type cardRow struct {
	Seq            int64         `db:"seq"`
	ID             string        `db:"id"`
	Question       string        `db:"question"`
	Answer         string        `db:"answer"`
	Topic          string        `db:"topic"`
	SourceID       sql.NullInt64 `db:"source_id"`
	EasinessFactor float64       `db:"easiness_factor"`
	Interval       int           `db:"interval_days"`
	Repetitions    int           `db:"repetitions"`
	NextReview     string        `db:"next_review"`
	CreatedAt      string        `db:"created_at"`
}

func (r cardRow) card() (domain.Card, error) {
	c := domain.Card{
		ID:       r.ID,
		Question: r.Question,
		Answer:   r.Answer,
		Topic:    r.Topic,
		SourceID: r.SourceID.Int64,
		Schedule: domain.Schedule{
			EasinessFactor: r.EasinessFactor,
			Interval:       r.Interval,
			Repetitions:    r.Repetitions,
			NextReview:     domain.Date(r.NextReview),
		},
	}
	if err := c.Schedule.Validate(); err != nil {
		return domain.Card{}, fmt.Errorf("card %s: %w", r.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return domain.Card{}, fmt.Errorf("card %s: bad created_at: %w", r.ID, err)
	}
	c.CreatedAt = createdAt
	return c, nil
}

func toCards(rows []cardRow) ([]domain.Card, error) {
	cards := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		c, err := r.card()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func nullableSource(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// AddCard inserts a new card with its initial schedule and counts it towards
// the cards added on the day it was created.
func (db *DB) AddCard(ctx context.Context, card domain.Card) error {
	if err := card.Schedule.Validate(); err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}

	db.logger.Debug("sql", "op", "insert", "table", "cards", "id", card.ID)
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO cards (id, question, answer, topic, source_id,
				easiness_factor, interval_days, repetitions, next_review, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			card.ID,
			card.Question,
			card.Answer,
			card.Topic,
			nullableSource(card.SourceID),
			card.Schedule.EasinessFactor,
			card.Schedule.Interval,
			card.Schedule.Repetitions,
			string(card.Schedule.NextReview),
			card.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrCardExists, card.ID)
		}
		return bumpDailyStat(ctx, tx, "cards_added", domain.DateOf(card.CreatedAt))
	})
}

// FindCard retrieves a card by its ID. It returns nil if no card matches.
func (db *DB) FindCard(ctx context.Context, id string) (*domain.Card, error) {
	var row cardRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	c, err := row.card()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AllCards retrieves every card in insertion order.
func (db *DB) AllCards(ctx context.Context) ([]domain.Card, error) {
	return db.selectCards(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY seq`)
}

// DueCards retrieves the cards due on or before today, oldest-due first.
// A limit of zero or less means no limit.
func (db *DB) DueCards(ctx context.Context, today domain.Date, limit int) ([]domain.Card, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	return db.selectCards(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE next_review <= ?
		ORDER BY next_review ASC, seq ASC
		LIMIT ?
	`, string(today), limit)
}

// CardsForTopic retrieves the cards tagged with the given topic.
func (db *DB) CardsForTopic(ctx context.Context, topic string) ([]domain.Card, error) {
	return db.selectCards(ctx, `SELECT `+cardColumns+` FROM cards WHERE topic = ? ORDER BY seq`, topic)
}

// CardsBySourceID retrieves all cards imported from a specific source.
func (db *DB) CardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	return db.selectCards(ctx, `SELECT `+cardColumns+` FROM cards WHERE source_id = ? ORDER BY seq`, sourceID)
}

func (db *DB) selectCards(ctx context.Context, query string, args ...any) ([]domain.Card, error) {
	var rows []cardRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	return toCards(rows)
}

// TotalCards returns the number of cards in the collection.
func (db *DB) TotalCards(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM cards`); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// DeleteCard removes a card and its review history.
func (db *DB) DeleteCard(ctx context.Context, id string) error {
	db.logger.Debug("sql", "op", "delete", "table", "cards", "id", id)
	res, err := db.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return nil
}
