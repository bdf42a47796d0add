package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"uttt/engine"
	"uttt/player"
	"uttt/tui"
)

type PlayOptions struct {
	*RootOptions
	LogFile string
}

func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play in the terminal. The search runs in the background and shows its
best move for the side to play; it moves on its own for marks given the ai
role.

Examples:
  uttt play
  uttt play --x ai --o human --thinking-time 5s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs here instead of discarding them")
	return cmd
}

func runPlay(ctx context.Context, opts *PlayOptions) error {
	cfg := opts.cfg
	assignment, err := player.ParseAssignment(cfg.X, cfg.O)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI
	logger := zerolog.Nop()
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger = zerolog.New(f).With().Timestamp().Logger()
	}

	views := tui.NewViews()
	session, closeRec, err := newSession(cfg, logger, engine.WithDisplay(views))
	if err != nil {
		return err
	}
	defer closeRecorder(closeRec)
	if err := session.NewGame(assignment); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	program := tea.NewProgram(tui.NewModel(session, views, assignment).WithBoardSize(cfg.BoardSize), tea.WithAltScreen())
	_, uiErr := program.Run()
	cancel()
	if err := <-done; err != nil {
		return err
	}
	return uiErr
}
