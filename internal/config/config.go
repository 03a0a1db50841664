// Package config loads studyforge settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/studyforge/internal/review"
)

// EnvPrefix prefixes every environment variable that maps onto a key.
const EnvPrefix = "STUDYFORGE_"

// Config holds the settings shared by all commands. Keys match flag names.
type Config struct {
	DB            string `koanf:"db" validate:"required"`
	LogLevel      string `koanf:"log-level" validate:"oneof=debug info warn warning error"`
	LogFormat     string `koanf:"log-format" validate:"oneof=text json"`
	ReviewLimit   int    `koanf:"review-limit" validate:"gte=0"`
	Interleave    bool   `koanf:"interleave"`
	Seed          uint64 `koanf:"seed"`
	ForecastDays  int    `koanf:"forecast-days" validate:"gte=1,lte=365"`
	DashboardDays int    `koanf:"dashboard-days" validate:"gte=1,lte=365"`
	ReposDir      string `koanf:"repos-dir" validate:"required"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:            "studyforge.db",
		LogLevel:      "info",
		LogFormat:     "text",
		ReviewLimit:   0,
		ForecastDays:  review.DefaultForecastDays,
		DashboardDays: review.DefaultDashboardDays,
		ReposDir:      "repos",
	}
}

// Options says where Load looks for settings. Empty fields are skipped.
type Options struct {
	// File is a YAML config file. It must exist when set.
	File string
	// EnvFile is a dotenv file loaded into the process environment first.
	// A missing file is ignored.
	EnvFile string
	// Flags are applied last; flags left at their default only fill keys
	// no other layer set.
	Flags *pflag.FlagSet
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load merges every layer on top of Default and validates the result.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	k := koanf.New(".")
	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", opts.File, err)
		}
	}

	envKey := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.Provider(opts.Flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RegisterFlags defines one flag per key on flags, defaulting to Default().
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("db", d.DB, "Path to the SQLite database file")
	flags.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", d.LogFormat, "Log format (text, json)")
	flags.Int("review-limit", d.ReviewLimit, "Maximum cards per review session (0 = no limit)")
	flags.Bool("interleave", d.Interleave, "Shuffle due cards across topics")
	flags.Uint64("seed", d.Seed, "Seed for interleaving (0 = random)")
	flags.Int("forecast-days", d.ForecastDays, "Days covered by the forecast")
	flags.Int("dashboard-days", d.DashboardDays, "Days covered by the stats dashboard")
	flags.String("repos-dir", d.ReposDir, "Directory holding git deck checkouts")
}
