// Package engine wires a coordinator and a search worker into one running
// game. Each side runs on its own goroutine and owns its own board; the
// only link between them is a pair of mailboxes.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"uttt/communication"
	"uttt/display"
	"uttt/gamemaster"
	"uttt/metrics"
	"uttt/options"
	"uttt/player"
	"uttt/scheduler"
)

var ErrSessionClosed = errors.New("session closed")

// errGameOver stops a session that should end with its game.
var errGameOver = errors.New("game over")

const commandBuffer = 16

type Option func(s *Session)

// WithID names the session in logs, for callers that need the id before
// the session exists.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.ID = id
	}
}

func WithDisplay(d display.Display) Option {
	return func(s *Session) {
		if d != nil {
			s.display = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithOptions sets the worker's options before the first game. StartGame
// still overrides who the worker plays for.
func WithOptions(opts options.Options) Option {
	return func(s *Session) {
		s.opts = opts
	}
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// WithStopOnGameOver makes Run return once the first game ends.
func WithStopOnGameOver() Option {
	return func(s *Session) {
		s.stopOnGameOver = true
	}
}

type command func(c *gamemaster.Coordinator) error

// Session is one coordinator and one worker joined by two mailboxes. It
// implements display.Controller; commands run on the coordinator's
// goroutine in the order they were submitted.
type Session struct {
	ID uuid.UUID

	logger         zerolog.Logger
	display        display.Display
	opts           options.Options
	recorder       metrics.Recorder
	stopOnGameOver bool

	toWorker      *communication.Mailbox
	toCoordinator *communication.Mailbox
	worker        *scheduler.Scheduler
	coordinator   *gamemaster.Coordinator

	commands chan command
	done     chan struct{}

	mu   sync.Mutex
	last gamemaster.View
}

func NewSession(board gamemaster.Board, search scheduler.Engine, opts ...Option) *Session {
	s := &Session{ // Default values
		ID:            uuid.New(),
		logger:        zerolog.Nop(),
		display:       display.Multi{},
		opts:          options.Default(),
		recorder:      metrics.NewDummyRecorder(),
		toWorker:      communication.NewMailbox(),
		toCoordinator: communication.NewMailbox(),
		commands:      make(chan command, commandBuffer),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session", s.ID.String()).Logger()

	s.worker = scheduler.New(search, s.toCoordinator,
		scheduler.WithInbox(s.toWorker),
		scheduler.WithOptions(s.opts),
		scheduler.WithRecorder(s.recorder),
		scheduler.WithLogger(s.logger.With().Str("context", "worker").Logger()),
	)
	s.coordinator = gamemaster.New(board, s.toWorker,
		gamemaster.WithLogger(s.logger.With().Str("context", "coordinator").Logger()),
	)
	return s
}

// Run drives both sides until ctx is done or, with WithStopOnGameOver, the
// game ends. A cancelled ctx is not an error.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.logger.Info().Msg("session started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.worker.Run(gctx)
	})
	g.Go(func() error {
		defer s.toWorker.Close()
		return s.coordinate(gctx)
	})

	err := g.Wait()
	s.toCoordinator.Close()
	s.logger.Info().Msg("session stopped")
	if errors.Is(err, errGameOver) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) coordinate(ctx context.Context) error {
	s.publish()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.commands:
			if err := cmd(s.coordinator); err != nil {
				s.logger.Warn().Err(err).Msg("command failed")
			}
		case <-s.toCoordinator.Wait():
			if err := s.coordinator.Drain(s.toCoordinator); err != nil {
				s.logger.Error().Err(err).Msg("failed to apply worker message")
				if s.stopOnGameOver {
					return err
				}
			}
		}
		s.publish()

		if s.stopOnGameOver && s.coordinator.Epoch() > 0 && s.coordinator.IsGameOver() {
			return errGameOver
		}
	}
}

func (s *Session) publish() {
	view := s.coordinator.View()
	s.mu.Lock()
	s.last = view
	s.mu.Unlock()
	s.display.Update(view)
}

// LastView is the view most recently pushed to the display.
func (s *Session) LastView() gamemaster.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) submit(cmd command) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) Click(x, y, boardSize float64) error {
	return s.submit(func(c *gamemaster.Coordinator) error {
		_, _, err := c.HandleClick(x, y, boardSize)
		return err
	})
}

func (s *Session) Toggle() error {
	return s.submit(func(c *gamemaster.Coordinator) error {
		return c.ToggleSimulation()
	})
}

func (s *Session) NewGame(assignment player.Assignment) error {
	return s.submit(func(c *gamemaster.Coordinator) error {
		return c.StartGame(assignment)
	})
}

func (s *Session) SetThinkingTime(d time.Duration) error {
	return s.submit(func(c *gamemaster.Coordinator) error {
		return c.SetThinkingTime(d)
	})
}
