package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/importer"
	"github.com/conorfennell/studyforge/internal/storage"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage deck sources",
	}
	cmd.AddCommand(newSourceAddCmd(a), newSourceListCmd(a), newSourceRemoveCmd(a))
	return cmd
}

func newSourceAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path-or-git-url>",
		Short: "Register a local directory or git repository of decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			src, err := importer.New(db, a.cfg.ReposDir, a.logger).AddSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\n", src.Type, src.ID, src.Path)
			return nil
		},
	}
}

func newSourceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List deck sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources, err := db.AllSources(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sources) == 0 {
				fmt.Fprintln(out, "No sources configured.")
				return nil
			}
			fmt.Fprintf(out, "%-4s  %-5s  %-20s  %s\n", "ID", "TYPE", "LAST SCANNED", "PATH")
			for _, s := range sources {
				scanned := "never"
				if s.LastScanned.Valid {
					scanned = s.LastScanned.String
				}
				fmt.Fprintf(out, "%-4d  %-5s  %-20s  %s\n", s.ID, s.Type, scanned, s.Path)
			}
			return nil
		},
	}
}

func newSourceRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-path>",
		Short: "Remove a source and the cards imported from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				src, err := findSource(cmd, db, args[0])
				if err != nil {
					return err
				}
				id = src.ID
			}
			if err := db.DeleteSource(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
			return nil
		},
	}
}

// findSource looks a source up by path, trying the absolute form for local
// directories.
func findSource(cmd *cobra.Command, db *storage.DB, path string) (*storage.Source, error) {
	candidates := []string{path}
	if importer.DetectSourceType(path) == storage.SourceLocal {
		if abs, err := filepath.Abs(path); err == nil && abs != path {
			candidates = append(candidates, abs)
		}
	}
	for _, p := range candidates {
		src, err := db.FindSourceByPath(cmd.Context(), p)
		if err != nil {
			return nil, err
		}
		if src != nil {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, storage.ErrSourceNotFound)
}

func newSyncCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import new cards from every source and drop removed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			im := importer.New(db, a.cfg.ReposDir, a.logger)
			im.SetClock(a.now)
			if verbose {
				im.SetProgress(cmd.ErrOrStderr())
			}
			report, err := im.SyncAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parsed %d cards: %d added, %d removed.\n", report.Parsed, report.Added, report.Removed)
			for _, e := range report.Errors {
				fmt.Fprintf(out, "- %s\n", e)
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("sync finished with %d errors", len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show git progress")
	return cmd
}
