package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"uttt/display"
	"uttt/engine"
	"uttt/player"
)

const shutdownTimeout = 5 * time.Second

type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over a websocket",
		Long: `Serve one game over a websocket at /ws. Every connected client sees the
same board; clicks, pause and new game commands from any of them apply to it.

Examples:
  uttt serve --addr :8080
  uttt serve --x ai --o ai`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg := opts.cfg
	addr := opts.Addr
	if addr == "" {
		addr = cfg.Addr
	}
	assignment, err := player.ParseAssignment(cfg.X, cfg.O)
	if err != nil {
		return err
	}

	hub := display.NewHub(log.Logger)
	defer hub.Close()
	session, closeRec, err := newSession(cfg, log.Logger,
		engine.WithDisplay(display.Multi{hub, display.NewLogDisplay(log.Logger)}),
	)
	if err != nil {
		return err
	}
	defer closeRecorder(closeRec)
	if err := session.NewGame(assignment); err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: hub.Router(session)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
