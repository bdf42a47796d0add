// Package experiments measures how search throughput scales with the number
// of playout goroutines.
package experiments

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"uttt/communication"
	"uttt/game"
	"uttt/metrics"
	"uttt/options"
	"uttt/scheduler"
	"uttt/searcher"
)

// Config is one search setup under test. Both marks are played by the
// search for Plies moves from the opening.
type Config struct {
	ID                 int
	Goroutines         int
	SimulationsPerStep int
	ThinkingTime       time.Duration
	Plies              int
	Seed               uint64
}

type Result struct {
	Config
	Rounds  int
	Steps   int64
	Sims    int
	Reuses  int64
	Plies   int
	Elapsed time.Duration
	SimRate float64
}

// collector keeps every round the scheduler reports.
type collector struct {
	rounds []metrics.Round
}

func (c *collector) Record(r metrics.Round) error {
	c.rounds = append(c.rounds, r)
	return nil
}

func (c *collector) Close() error { return nil }

// RunThroughput runs each config in turn and stops early when ctx is done.
func RunThroughput(ctx context.Context, configs []Config, logger zerolog.Logger) []Result {
	results := make([]Result, 0, len(configs))
	for _, config := range configs {
		if ctx.Err() != nil {
			break
		}
		logger.Info().Int("id", config.ID).Int("goroutines", config.Goroutines).Msg("starting throughput run")
		result := run(ctx, config)
		logger.Info().
			Int("id", config.ID).
			Int("sims", result.Sims).
			Dur("elapsed", result.Elapsed).
			Float64("sim_rate", result.SimRate).
			Msg("completed throughput run")
		results = append(results, result)
	}
	return results
}

func run(ctx context.Context, config Config) Result {
	tree := searcher.NewTree(
		searcher.WithGoroutines(config.Goroutines),
		searcher.WithSeed(config.Seed),
	)

	opts := options.Default()
	opts.SimulationEnabled = true
	opts.PlayingFor = [game.NumPlayers]bool{true, true}
	opts.ThinkingTime = config.ThinkingTime
	if config.SimulationsPerStep > 0 {
		opts.SimulationsPerStep = config.SimulationsPerStep
	}

	rec := &collector{}
	outbox := communication.NewMailbox()
	s := scheduler.New(tree, outbox, scheduler.WithOptions(opts), scheduler.WithRecorder(rec))

	for s.Ply() < config.Plies && !tree.IsGameOver() && ctx.Err() == nil {
		s.Round()
		outbox.Drain(func(communication.Message) {})
	}

	counts := tree.Counts()
	result := Result{
		Config: config,
		Rounds: len(rec.rounds),
		Steps:  counts.Steps,
		Reuses: counts.Reuses,
		Plies:  s.Ply(),
	}
	for _, r := range rec.rounds {
		result.Sims += r.RoundSimCount
		result.Elapsed += r.Elapsed
	}
	if result.Elapsed > 0 {
		result.SimRate = float64(result.Sims) / result.Elapsed.Seconds()
	}
	return result
}
