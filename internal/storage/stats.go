package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/jmoiron/sqlx"
)

// DailyStats holds the counters kept for one calendar day.
type DailyStats struct {
	Date          domain.Date `db:"date"`
	CardsReviewed int         `db:"cards_reviewed"`
	CardsAdded    int         `db:"cards_added"`
}

// bumpDailyStat increments one counter column for the given day. The column
// name is never user input.
func bumpDailyStat(ctx context.Context, tx *sqlx.Tx, column string, day domain.Date) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO daily_stats (date, %[1]s) VALUES (?, 1)
		ON CONFLICT(date) DO UPDATE SET %[1]s = %[1]s + 1
	`, column), string(day))
	if err != nil {
		return fmt.Errorf("failed to bump %s for %s: %w", column, day, err)
	}
	return nil
}

// StatsFor returns the counters for a day, all zero if nothing happened.
func (db *DB) StatsFor(ctx context.Context, day domain.Date) (DailyStats, error) {
	var s DailyStats
	err := db.conn.GetContext(ctx, &s, `
		SELECT date, cards_reviewed, cards_added FROM daily_stats WHERE date = ?
	`, string(day))
	if errors.Is(err, sql.ErrNoRows) {
		return DailyStats{Date: day}, nil
	}
	if err != nil {
		return DailyStats{}, fmt.Errorf("failed to get stats for %s: %w", day, err)
	}
	return s, nil
}
