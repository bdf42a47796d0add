// Package cli holds the uttt commands.
package cli

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"uttt/config"
	"uttt/engine"
	"uttt/game"
	"uttt/meta"
	"uttt/metrics"
	"uttt/searcher"
)

// RootOptions holds global flags and the loaded configuration.
type RootOptions struct {
	ConfigPath string

	v   *viper.Viper
	cfg *config.Config
}

// flagKeys binds persistent flags to config keys.
var flagKeys = map[string]string{
	"log-level":            "log_level",
	"target-round-time":    "target_round_time",
	"simulations-per-step": "simulations_per_step",
	"thinking-time":        "thinking_time",
	"goroutines":           "goroutines",
	"seed":                 "seed",
	"metrics-dir":          "metrics_dir",
	"x":                    "x",
	"o":                    "o",
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "uttt",
		Short: "Ultimate tic-tac-toe against a Monte Carlo search",
		Long: `Play ultimate tic-tac-toe against, or alongside, a UCT search that runs
on its own goroutine and talks to the game only through messages.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.v, opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			setupLogging(cmd.ErrOrStderr(), cfg.Level())
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	flags.Duration("target-round-time", meta.TargetRoundTime, "wall-clock length of one search round")
	flags.Int("simulations-per-step", meta.SimulationsPerStep, "playouts per search step")
	flags.Duration("thinking-time", meta.ThinkingTime, "search time before the AI commits a move")
	flags.Int("goroutines", meta.GO_ROUTINES, "goroutines running playouts")
	flags.Uint64("seed", 0, "random seed for the search")
	flags.String("metrics-dir", "", "write a CSV row per search round into this directory")
	flags.String("x", "human", "role for X (human|ai)")
	flags.String("o", "ai", "role for O (human|ai)")
	bindFlags(opts.v, flags)

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewSelfPlayCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}

// bindFlags lets set flags override the config file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

func setupLogging(w io.Writer, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// newSession builds a session from the loaded config. The returned close
// function flushes the round recorder.
func newSession(cfg *config.Config, logger zerolog.Logger, opts ...engine.Option) (*engine.Session, func() error, error) {
	id := uuid.New()
	recorder := metrics.NewDummyRecorder()
	if cfg.MetricsDir != "" {
		w, err := metrics.NewWriter(cfg.MetricsDir, id.String())
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", w.Path()).Msg("recording rounds")
		recorder = w
	}

	tree := searcher.NewTree(
		searcher.WithGoroutines(cfg.Goroutines),
		searcher.WithSeed(cfg.Seed),
	)
	opts = append([]engine.Option{
		engine.WithID(id),
		engine.WithLogger(logger),
		engine.WithOptions(cfg.Options()),
		engine.WithRecorder(recorder),
	}, opts...)
	return engine.NewSession(game.NewBoard(), tree, opts...), recorder.Close, nil
}

func closeRecorder(close func() error) {
	if err := close(); err != nil {
		log.Warn().Err(err).Msg("failed to close round recorder")
	}
}
