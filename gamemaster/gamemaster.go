// Package gamemaster runs the interactive side of a game. The Coordinator
// owns the local board mirror, applies human clicks and the worker's moves
// to it in arrival order, and relays option changes to the worker.
package gamemaster

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"uttt/communication"
	"uttt/game"
	"uttt/metrics"
	"uttt/options"
	"uttt/player"
)

// ErrMirrorDiverged means the worker's board no longer replays the same
// actions as the local board. Only StartGame recovers.
var ErrMirrorDiverged = errors.New("board mirror diverged")

type Option func(c *Coordinator)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

type Coordinator struct {
	board  Board
	outbox communication.Sender
	logger zerolog.Logger

	epoch      uint64
	ply        int
	assignment player.Assignment
	started    bool
	searching  bool
	diverged   bool

	suggestion    game.SearchStats
	hasSuggestion bool
	metrics       metrics.Round
	last          game.Action
	hasLast       bool
}

func New(board Board, outbox communication.Sender, opts ...Option) *Coordinator {
	c := &Coordinator{
		board:  board,
		outbox: outbox,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartGame resets both mirrors and tells the worker which marks it plays.
func (c *Coordinator) StartGame(assignment player.Assignment) error {
	c.epoch++
	c.ply = 0
	c.board.Reset()
	c.assignment = assignment
	c.started = true
	c.diverged = false
	c.hasLast = false
	c.clearSuggestion()
	c.metrics = metrics.Round{}

	ai := assignment.AI()
	patch := options.ForAssignment(ai)
	c.searching = patch.SimulationEnabled.Apply(false)

	c.logger.Info().Uint64("epoch", c.epoch).Stringer("assignment", assignment).Msg("new game")

	if err := c.outbox.Send(communication.NewGame(c.epoch)); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	if err := c.outbox.Send(communication.SetOptions(c.epoch, patch)); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	return nil
}

// HandleClick plays the cell under (x, y) for a human player. It returns
// false when the click does not produce a move: not a human's turn, game
// over, or no legal cell under the pointer.
func (c *Coordinator) HandleClick(x, y, boardSize float64) (game.Action, bool, error) {
	if c.diverged {
		return 0, false, ErrMirrorDiverged
	}
	if !c.started || c.board.IsGameOver() || c.assignment.IsAI(c.board.CurrentPlayer()) {
		return 0, false, nil
	}
	action, ok := c.board.ActionForClick(x, y, boardSize)
	if !ok {
		return 0, false, nil
	}

	mover := c.board.CurrentPlayer()
	ply := c.ply
	c.apply(action)
	c.logger.Debug().Stringer("player", mover).Stringer("action", action).Int("ply", ply).Msg("human move")

	if err := c.outbox.Send(communication.DoAction(c.epoch, ply, action, hashOf(c.board))); err != nil {
		return action, true, fmt.Errorf("send action %s: %w", action, err)
	}
	return action, true, nil
}

func (c *Coordinator) apply(action game.Action) {
	c.board.DoActionMut(action)
	c.ply++
	c.last, c.hasLast = action, true
	c.clearSuggestion()
}

func (c *Coordinator) clearSuggestion() {
	c.suggestion, c.hasSuggestion = game.SearchStats{}, false
}

// Receive applies one message from the worker.
func (c *Coordinator) Receive(msg communication.Message) error {
	if msg.Epoch != c.epoch {
		c.logger.Debug().Stringer("message", msg).Uint64("current", c.epoch).Msg("dropping stale message")
		return nil
	}

	switch msg.Kind {
	case communication.KindDoAction:
		return c.receiveAction(msg)

	case communication.KindStats:
		// Stats for any other position describe a board that is gone
		if c.diverged || msg.Ply != c.ply {
			return nil
		}
		c.suggestion, c.hasSuggestion = msg.Stats, true
		c.metrics = msg.Round

	default:
		c.logger.Debug().Str("kind", string(msg.Kind)).Msg("ignoring message")
	}
	return nil
}

func (c *Coordinator) receiveAction(msg communication.Message) error {
	if c.diverged {
		return ErrMirrorDiverged
	}
	switch {
	case msg.Ply != c.ply:
		return c.diverge(msg, fmt.Sprintf("ply %d, local ply %d", msg.Ply, c.ply))
	case c.board.IsGameOver():
		return c.diverge(msg, "game is over")
	case !legal(c.board, msg.Action):
		return c.diverge(msg, "illegal action")
	}

	mover := c.board.CurrentPlayer()
	c.apply(msg.Action)
	c.logger.Debug().Stringer("player", mover).Stringer("action", msg.Action).Int("ply", msg.Ply).Msg("worker move")

	if h := hashOf(c.board); msg.Hash != 0 && h != 0 && h != msg.Hash {
		return c.diverge(msg, "hash mismatch")
	}
	if c.board.IsGameOver() {
		c.logger.Info().Uint64("epoch", c.epoch).Int("ply", c.ply).Msg("game over")
	}
	return nil
}

func (c *Coordinator) diverge(msg communication.Message, reason string) error {
	c.diverged = true
	c.clearSuggestion()
	c.logger.Error().Str("reason", reason).Stringer("message", msg).Msg("board mirror diverged")
	return fmt.Errorf("%w: %s: %s", ErrMirrorDiverged, msg, reason)
}

// Drain receives every message waiting in inbox and returns the first
// error.
func (c *Coordinator) Drain(inbox communication.Receiver) error {
	var first error
	inbox.Drain(func(msg communication.Message) {
		if err := c.Receive(msg); err != nil && first == nil {
			first = err
		}
	})
	return first
}

// ToggleSimulation pauses or resumes the worker's search.
func (c *Coordinator) ToggleSimulation() error {
	return c.SetOptions(options.Patch{SimulationEnabled: options.Toggle()})
}

func (c *Coordinator) SetThinkingTime(d time.Duration) error {
	return c.SetOptions(options.Patch{ThinkingTime: options.Some(d)})
}

// SetOptions relays patch to the worker. Which marks the worker plays is
// fixed by the assignment given to StartGame, so PlayingFor is dropped.
func (c *Coordinator) SetOptions(patch options.Patch) error {
	if patch.PlayingFor != ([game.NumPlayers]options.Flag{}) {
		c.logger.Warn().Stringer("assignment", c.assignment).Msg("ignoring playing_for outside of a new game")
		patch.PlayingFor = [game.NumPlayers]options.Flag{}
	}
	c.searching = patch.SimulationEnabled.Apply(c.searching)
	if err := c.outbox.Send(communication.SetOptions(c.epoch, patch)); err != nil {
		return fmt.Errorf("set options: %w", err)
	}
	return nil
}

// Suggestion is the worker's best action for the current position, if a
// search round has reported one since the last move.
func (c *Coordinator) Suggestion() (game.SearchStats, bool) {
	return c.suggestion, c.hasSuggestion
}

func (c *Coordinator) Metrics() metrics.Round { return c.metrics }

func (c *Coordinator) Player() game.Player { return c.board.CurrentPlayer() }

func (c *Coordinator) IsGameOver() bool { return c.board.IsGameOver() }

func (c *Coordinator) Assignment() player.Assignment { return c.assignment }

func (c *Coordinator) Epoch() uint64 { return c.epoch }

func (c *Coordinator) Ply() int { return c.ply }

func (c *Coordinator) Diverged() bool { return c.diverged }

// Searching is the last search state this coordinator asked for.
func (c *Coordinator) Searching() bool { return c.searching }

// AwaitingHuman reports whether the game waits for a click.
func (c *Coordinator) AwaitingHuman() bool {
	return c.started && !c.diverged && !c.board.IsGameOver() && !c.assignment.IsAI(c.board.CurrentPlayer())
}
