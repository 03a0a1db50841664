// Package cli implements the studyforge command line.
package cli

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studyforge/internal/config"
	"github.com/conorfennell/studyforge/internal/domain"
	"github.com/conorfennell/studyforge/internal/logging"
	"github.com/conorfennell/studyforge/internal/storage"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
}

func (a *app) today() domain.Date { return domain.DateOf(a.now()) }

// openDB opens the configured database. Callers close it.
func (a *app) openDB() (*storage.DB, error) {
	return storage.Open(a.cfg.DB, a.logger)
}

// rng returns the shuffle source for interleaving, nil when unseeded.
func (a *app) rng() *rand.Rand {
	if a.cfg.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed))
}

// NewRootCmd creates the root cobra command for the studyforge CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}
	var configFile, envFile string

	root := &cobra.Command{
		Use:   "studyforge",
		Short: "Spaced-repetition flashcards on the command line",
		Long: "studyforge schedules flashcard reviews with the SM-2 algorithm, " +
			"imports decks from local directories and git repositories, " +
			"and forecasts upcoming review load.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{
				File:    configFile,
				EnvFile: envFile,
				Flags:   cmd.Root().PersistentFlags(),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newAddCmd(a),
		newDueCmd(a),
		newReviewCmd(a),
		newForecastCmd(a),
		newStatsCmd(a),
		newSourceCmd(a),
		newSyncCmd(a),
	)
	return root
}
