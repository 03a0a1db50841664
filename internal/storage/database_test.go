package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/conorfennell/studyforge/internal/domain"
)

var created = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

func testDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	db, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCard(id string, next domain.Date) domain.Card {
	return domain.Card{
		ID:        id,
		Question:  "Question " + id,
		Answer:    "Answer " + id,
		Topic:     "general",
		Schedule:  domain.Schedule{EasinessFactor: 2.5, NextReview: next},
		CreatedAt: created,
	}
}

func mustAdd(t *testing.T, db *DB, cards ...domain.Card) {
	t.Helper()
	for _, c := range cards {
		if err := db.AddCard(context.Background(), c); err != nil {
			t.Fatalf("AddCard(%s): %v", c.ID, err)
		}
	}
}

func cardIDs(cards []domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestAddAndFindCard(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mustAdd(t, db, sampleCard("c1", "2024-01-10"))

	got, err := db.FindCard(ctx, "c1")
	if err != nil {
		t.Fatalf("FindCard: %v", err)
	}
	if got == nil {
		t.Fatal("Expected to find card c1")
	}
	want := sampleCard("c1", "2024-01-10")
	if got.Question != want.Question || got.Answer != want.Answer || got.Topic != want.Topic {
		t.Errorf("Content mismatch: got %+v", got)
	}
	if got.Schedule != want.Schedule {
		t.Errorf("Schedule = %+v, want %+v", got.Schedule, want.Schedule)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.SourceID != 0 {
		t.Errorf("Expected no source, got %d", got.SourceID)
	}

	missing, err := db.FindCard(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("FindCard(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestAddCardRejectsDuplicatesAndInvalidSchedules(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mustAdd(t, db, sampleCard("c1", "2024-01-10"))

	if err := db.AddCard(ctx, sampleCard("c1", "2024-01-10")); !errors.Is(err, ErrCardExists) {
		t.Errorf("Expected ErrCardExists, got %v", err)
	}

	bad := sampleCard("c2", "2024-01-10")
	bad.Schedule.EasinessFactor = 0.5
	if err := db.AddCard(ctx, bad); err == nil {
		t.Error("Expected an error for an easiness factor below the floor")
	}

	n, err := db.TotalCards(ctx)
	if err != nil {
		t.Fatalf("TotalCards: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 card, got %d", n)
	}

	stats, err := db.StatsFor(ctx, "2024-01-10")
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if stats.CardsAdded != 1 {
		t.Errorf("Expected 1 card added, got %d", stats.CardsAdded)
	}
}

func TestDueCards(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mustAdd(t, db,
		sampleCard("today-1", "2024-01-10"),
		sampleCard("future", "2024-01-11"),
		sampleCard("old", "2024-01-01"),
		sampleCard("today-2", "2024-01-10"),
	)

	testCases := []struct {
		name  string
		limit int
		want  []string
	}{
		{"unbounded", 0, []string{"old", "today-1", "today-2"}},
		{"limited", 2, []string{"old", "today-1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			due, err := db.DueCards(ctx, "2024-01-10", tc.limit)
			if err != nil {
				t.Fatalf("DueCards: %v", err)
			}
			if got := cardIDs(due); !slices.Equal(got, tc.want) {
				t.Errorf("DueCards() = %v, want %v", got, tc.want)
			}
		})
	}

	all, err := db.AllCards(ctx)
	if err != nil {
		t.Fatalf("AllCards: %v", err)
	}
	if got := cardIDs(all); !slices.Equal(got, []string{"today-1", "future", "old", "today-2"}) {
		t.Errorf("AllCards() not in insertion order: %v", got)
	}
}

func TestRecordReview(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mustAdd(t, db, sampleCard("c1", "2024-01-10"))

	next := domain.Schedule{EasinessFactor: 2.6, Interval: 1, Repetitions: 1, NextReview: "2024-01-11"}
	reviewedAt := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	entry := domain.ReviewLog{CardID: "c1", Rating: 5, Timestamp: reviewedAt}
	if err := db.RecordReview(ctx, "c1", next, entry); err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	got, err := db.FindCard(ctx, "c1")
	if err != nil || got == nil {
		t.Fatalf("FindCard: %v, %v", got, err)
	}
	if got.Schedule != next {
		t.Errorf("Schedule = %+v, want %+v", got.Schedule, next)
	}

	logs, err := db.ReviewLogs(ctx, "c1")
	if err != nil {
		t.Fatalf("ReviewLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Rating != 5 || !logs[0].Timestamp.Equal(reviewedAt) {
		t.Errorf("Unexpected review log %+v", logs)
	}

	stats, err := db.StatsFor(ctx, "2024-01-10")
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if stats.CardsReviewed != 1 {
		t.Errorf("Expected 1 review counted, got %d", stats.CardsReviewed)
	}
}

func TestRecordReviewIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	s := domain.Schedule{EasinessFactor: 2.5, NextReview: "2024-01-10"}
	entry := domain.ReviewLog{CardID: "ghost", Rating: 1, Timestamp: created}
	if err := db.RecordReview(ctx, "ghost", s, entry); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("Expected ErrCardNotFound, got %v", err)
	}

	logs, err := db.ReviewLogs(ctx, "ghost")
	if err != nil {
		t.Fatalf("ReviewLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected no log entries after a failed review, got %d", len(logs))
	}
	stats, err := db.StatsFor(ctx, "2024-01-10")
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if stats.CardsReviewed != 0 {
		t.Errorf("Expected no review counted, got %d", stats.CardsReviewed)
	}

	mustAdd(t, db, sampleCard("c1", "2024-01-10"))
	invalid := domain.Schedule{EasinessFactor: 1.0, NextReview: "2024-01-10"}
	if err := db.RecordReview(ctx, "c1", invalid, entry); err == nil {
		t.Error("Expected an invalid schedule to be rejected")
	}
}

func TestDeleteCardRemovesHistory(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mustAdd(t, db, sampleCard("c1", "2024-01-10"))
	if err := db.RecordReview(ctx, "c1", domain.Schedule{EasinessFactor: 2.5, NextReview: "2024-01-10"},
		domain.ReviewLog{CardID: "c1", Rating: 0, Timestamp: created}); err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	if err := db.DeleteCard(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	logs, err := db.ReviewLogs(ctx, "c1")
	if err != nil {
		t.Fatalf("ReviewLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected review history to be deleted, got %d entries", len(logs))
	}
	if err := db.DeleteCard(ctx, "c1"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound on second delete, got %v", err)
	}
}

func TestCardsForTopic(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	law := sampleCard("law-1", "2024-01-10")
	law.Topic = "law"
	mustAdd(t, db, sampleCard("g1", "2024-01-10"), law)

	cards, err := db.CardsForTopic(ctx, "law")
	if err != nil {
		t.Fatalf("CardsForTopic: %v", err)
	}
	if got := cardIDs(cards); !slices.Equal(got, []string{"law-1"}) {
		t.Errorf("CardsForTopic(law) = %v", got)
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	id, err := db.InsertSource(ctx, "/decks/law", SourceLocal)
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	if _, err := db.InsertSource(ctx, "/decks/law", SourceLocal); err == nil {
		t.Error("Expected duplicate source paths to be rejected")
	}

	src, err := db.FindSourceByPath(ctx, "/decks/law")
	if err != nil || src == nil {
		t.Fatalf("FindSourceByPath: %v, %v", src, err)
	}
	if src.ID != id || src.Type != SourceLocal || src.LastScanned.Valid {
		t.Errorf("Unexpected source %+v", src)
	}

	if err := db.UpdateSourceLastScanned(ctx, id, created); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	all, err := db.AllSources(ctx)
	if err != nil {
		t.Fatalf("AllSources: %v", err)
	}
	if len(all) != 1 || all[0].LastScanned.String != "2024-01-10T09:30:00Z" {
		t.Errorf("Unexpected sources %+v", all)
	}

	imported := sampleCard("imported", "2024-01-10")
	imported.SourceID = id
	mustAdd(t, db, imported, sampleCard("manual", "2024-01-10"))

	bySource, err := db.CardsBySourceID(ctx, id)
	if err != nil {
		t.Fatalf("CardsBySourceID: %v", err)
	}
	if got := cardIDs(bySource); !slices.Equal(got, []string{"imported"}) {
		t.Errorf("CardsBySourceID() = %v", got)
	}

	if err := db.DeleteSource(ctx, id); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	remaining, err := db.AllCards(ctx)
	if err != nil {
		t.Fatalf("AllCards: %v", err)
	}
	if got := cardIDs(remaining); !slices.Equal(got, []string{"manual"}) {
		t.Errorf("Expected imported cards to go with their source, got %v", got)
	}
	if err := db.DeleteSource(ctx, id); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}

	missing, err := db.FindSourceByPath(ctx, "/nowhere")
	if err != nil || missing != nil {
		t.Errorf("FindSourceByPath(/nowhere) = %v, %v", missing, err)
	}
}
