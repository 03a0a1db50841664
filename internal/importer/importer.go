// Package importer reconciles deck sources with the card collection.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studyforge/internal/cardid"
	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/conorfennell/studyforge/internal/gitsource"
	"github.com/conorfennell/studyforge/internal/parser"
	"github.com/conorfennell/studyforge/internal/sm2"
	"github.com/conorfennell/studyforge/internal/storage"
)

// deckExts lists the file extensions scanned for cards.
var deckExts = []string{".md", ".txt"}

// Report summarizes one reconciliation.
type Report struct {
	Parsed  int
	Added   int
	Removed int
	Errors  []error
}

func (r *Report) merge(o Report) {
	r.Parsed += o.Parsed
	r.Added += o.Added
	r.Removed += o.Removed
	r.Errors = append(r.Errors, o.Errors...)
}

// Importer syncs sources into a card database.
type Importer struct {
	db       *storage.DB
	params   *sm2.Params
	reposDir string
	logger   *slog.Logger
	now      func() time.Time
	progress io.Writer

	// syncRepo fetches a git source; replaced in tests.
	syncRepo func(ctx context.Context, url, localPath string) error
}

// New returns an Importer that checks git sources out under reposDir.
func New(db *storage.DB, reposDir string, logger *slog.Logger) *Importer {
	im := &Importer{
		db:       db,
		params:   sm2.DefaultParams(),
		reposDir: reposDir,
		logger:   logger.With("component", "importer"),
		now:      time.Now,
	}
	im.syncRepo = func(ctx context.Context, url, localPath string) error {
		return gitsource.Sync(ctx, url, localPath, im.progress, im.logger)
	}
	return im
}

// SetProgress directs git clone and pull progress output to w.
func (im *Importer) SetProgress(w io.Writer) { im.progress = w }

// SetClock replaces the clock that dates new cards and scans.
func (im *Importer) SetClock(now func() time.Time) { im.now = now }

// DetectSourceType guesses whether path names a git repository or a local
// directory.
func DetectSourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		return storage.SourceGit
	}
	return storage.SourceLocal
}

// AddSource registers a new source, detecting its type from the path.
func (im *Importer) AddSource(ctx context.Context, path string) (storage.Source, error) {
	sourceType := DetectSourceType(path)
	if sourceType == storage.SourceLocal {
		abs, err := filepath.Abs(path)
		if err != nil {
			return storage.Source{}, fmt.Errorf("resolve %s: %w", path, err)
		}
		path = abs
	}
	id, err := im.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return storage.Source{}, err
	}
	im.logger.Info("source added", "id", id, "type", sourceType, "path", path)
	return storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// SyncAll iterates over all sources and reconciles them. A failing source is
// logged and recorded in the report; the others still sync.
func (im *Importer) SyncAll(ctx context.Context) (Report, error) {
	im.logger.Info("starting sync for all sources")
	sources, err := im.db.AllSources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get sources: %w", err)
	}

	var total Report
	if len(sources) == 0 {
		im.logger.Info("no sources configured")
		return total, nil
	}

	for _, source := range sources {
		report, err := im.SyncSource(ctx, source)
		if err != nil {
			im.logger.Error("source sync failed", "id", source.ID, "path", source.Path, "error", err)
			report.Errors = append(report.Errors, fmt.Errorf("source %s: %w", source.Path, err))
		}
		total.merge(report)
	}
	im.logger.Info("sync complete",
		"parsed", total.Parsed,
		"added", total.Added,
		"removed", total.Removed,
		"errors", len(total.Errors),
	)
	return total, nil
}

// SyncSource reconciles one source, fetching it first if it is a git source.
func (im *Importer) SyncSource(ctx context.Context, source storage.Source) (Report, error) {
	im.logger.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == storage.SourceGit {
		if err := os.MkdirAll(im.reposDir, 0o755); err != nil {
			return Report{}, fmt.Errorf("create repos directory: %w", err)
		}
		localPath, err := GitURLToLocalPath(im.reposDir, source.Path)
		if err != nil {
			return Report{}, err
		}
		if err := im.syncRepo(ctx, source.Path, localPath); err != nil {
			return Report{}, err
		}
		dir = localPath
	}
	return im.reconcile(ctx, source.ID, dir)
}

// reconcile inserts cards found under dir that are new, and deletes cards of
// the source that are no longer found. Nothing is deleted unless every deck
// file parsed cleanly.
func (im *Importer) reconcile(ctx context.Context, sourceID int64, dir string) (Report, error) {
	var report Report
	found := make(map[string]bool)
	unreadable := 0
	now := im.now()
	today := domain.DateOf(now)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isDeck(d.Name()) {
			return nil
		}

		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			unreadable++
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range cards {
			card.ID = cardid.For(card)
			report.Parsed++
			if found[card.ID] {
				continue
			}
			found[card.ID] = true

			card.SourceID = sourceID
			card.Schedule = im.params.NewSchedule(today)
			card.CreatedAt = now
			switch err := im.db.AddCard(ctx, card); {
			case err == nil:
				im.logger.Debug("new card inserted", "id", card.ID)
				report.Added++
			case errors.Is(err, storage.ErrCardExists):
				// Known card; its schedule is left alone.
			default:
				report.Errors = append(report.Errors, fmt.Errorf("db insert for %s: %w", card.ID, err))
			}
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	if unreadable > 0 {
		im.logger.Warn("skipping orphan removal, some decks could not be read",
			"path", dir, "unreadable_files", unreadable)
	} else if err := im.removeOrphans(ctx, sourceID, found, &report); err != nil {
		return report, err
	}

	if err := im.db.UpdateSourceLastScanned(ctx, sourceID, now); err != nil {
		im.logger.Warn("failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	im.logger.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", report.Parsed,
		"added", report.Added,
		"orphaned_deleted", report.Removed,
		"errors", len(report.Errors),
	)
	return report, nil
}

// removeOrphans deletes the source's cards whose IDs are not in found.
func (im *Importer) removeOrphans(ctx context.Context, sourceID int64, found map[string]bool, report *Report) error {
	existing, err := im.db.CardsBySourceID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get cards for source %d: %w", sourceID, err)
	}
	for _, card := range existing {
		if found[card.ID] {
			continue
		}
		im.logger.Info("orphaned card, deleting", "id", card.ID)
		if err := im.db.DeleteCard(ctx, card.ID); err != nil {
			im.logger.Warn("failed to delete orphaned card", "id", card.ID, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Removed++
	}
	return nil
}

func isDeck(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range deckExts {
		if ext == e {
			return true
		}
	}
	return false
}

// GitURLToLocalPath maps an https or scp-style git URL to a checkout
// directory under baseDir, e.g. git@github.com:me/deck.git becomes
// baseDir/github.com/me/deck.
func GitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			userHost, repoPath, ok := strings.Cut(repoURL, ":")
			if ok {
				if _, host, ok := strings.Cut(userHost, "@"); ok && host != "" {
					return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
