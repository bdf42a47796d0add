package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"uttt/experiments"
)

type BenchOptions struct {
	*RootOptions
	Goroutines []int
	Plies      int
}

func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure search throughput per goroutine count",
		Long: `Let the search play the opening of a game once per goroutine count and
report simulations per second.

Examples:
  uttt bench --workers 1,2,4,8 --plies 10 --thinking-time 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := opts.cfg

			configs := make([]experiments.Config, len(opts.Goroutines))
			for i, g := range opts.Goroutines {
				configs[i] = experiments.Config{
					ID:                 i + 1,
					Goroutines:         g,
					SimulationsPerStep: cfg.SimulationsPerStep,
					ThinkingTime:       cfg.ThinkingTime,
					Plies:              opts.Plies,
					Seed:               cfg.Seed,
				}
			}
			results := experiments.RunThroughput(ctx, configs, log.Logger)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "goroutines\tplies\trounds\tsteps\tsims\treuses\tsims/s")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%.0f\n", r.Goroutines, r.Plies, r.Rounds, r.Steps, r.Sims, r.Reuses, r.SimRate)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntSliceVar(&opts.Goroutines, "workers", []int{1, 2, 4, 8}, "goroutine counts to compare")
	cmd.Flags().IntVar(&opts.Plies, "plies", 6, "moves to play per run")
	return cmd
}
