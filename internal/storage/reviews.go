package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/jmoiron/sqlx"
)

// RecordReview writes a card's new schedule and appends the review to the log
// in a single transaction, so a review is never half-recorded. It also counts
// the review towards the day it happened.
func (db *DB) RecordReview(ctx context.Context, id string, s domain.Schedule, entry domain.ReviewLog) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("failed to record review of %s: %w", id, err)
	}

	db.logger.Debug("sql", "op", "review", "id", id, "rating", entry.Rating)
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE cards
			SET easiness_factor = ?, interval_days = ?, repetitions = ?, next_review = ?
			WHERE id = ?
		`,
			s.EasinessFactor,
			s.Interval,
			s.Repetitions,
			string(s.NextReview),
			id,
		)
		if err != nil {
			return fmt.Errorf("failed to update card state for %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update card state for %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO review_log (card_id, rating, reviewed_at)
			VALUES (?, ?, ?)
		`, id, entry.Rating, entry.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to append review log for %s: %w", id, err)
		}

		return bumpDailyStat(ctx, tx, "cards_reviewed", domain.DateOf(entry.Timestamp))
	})
}

type reviewRow struct {
	CardID     string `db:"card_id"`
	Rating     int    `db:"rating"`
	ReviewedAt string `db:"reviewed_at"`
}

// ReviewLogs retrieves the review history of a card, oldest first.
func (db *DB) ReviewLogs(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	var rows []reviewRow
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT card_id, rating, reviewed_at FROM review_log
		WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log for %s: %w", cardID, err)
	}

	logs := make([]domain.ReviewLog, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339Nano, r.ReviewedAt)
		if err != nil {
			return nil, fmt.Errorf("bad reviewed_at for %s: %w", cardID, err)
		}
		logs = append(logs, domain.ReviewLog{CardID: r.CardID, Rating: r.Rating, Timestamp: ts})
	}
	return logs, nil
}
