package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"uttt/display"
	"uttt/engine"
	"uttt/player"
)

type SelfPlayOptions struct {
	*RootOptions
	Games int
}

// SelfPlayResult tallies finished games.
type SelfPlayResult struct {
	Games int
	XWins int
	OWins int
	Draws int
	Plies int
}

func NewSelfPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelfPlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Let the search play both sides",
		Long: `Let the search play both sides without a display and log every move.

Examples:
  uttt selfplay --games 10 --thinking-time 200ms
  uttt selfplay --metrics-dir ./rounds`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := runSelfPlay(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "games: %d  X: %d  O: %d  draws: %d  avg plies: %.1f\n",
				result.Games, result.XWins, result.OWins, result.Draws, float64(result.Plies)/float64(max(1, result.Games)))
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Games, "games", 1, "number of games to play")
	return cmd
}

func runSelfPlay(ctx context.Context, opts *SelfPlayOptions) (SelfPlayResult, error) {
	var result SelfPlayResult
	for i := 0; i < opts.Games && ctx.Err() == nil; i++ {
		logger := log.Logger.With().Int("game", i+1).Logger()
		session, closeRec, err := newSession(opts.cfg, logger,
			engine.WithDisplay(display.NewLogDisplay(logger)),
			engine.WithStopOnGameOver(),
		)
		if err != nil {
			return result, err
		}
		if err := session.NewGame(player.NewAssignment(player.AI, player.AI)); err != nil {
			return result, err
		}
		err = session.Run(ctx)
		closeRecorder(closeRec)
		if err != nil {
			return result, err
		}

		view := session.LastView()
		if !view.GameOver {
			break
		}
		result.Games++
		result.Plies += view.Ply
		switch view.Winner {
		case "X":
			result.XWins++
		case "O":
			result.OWins++
		default:
			result.Draws++
		}
	}
	return result, nil
}
