package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"uttt/communication"
	"uttt/game"
	"uttt/gamemaster"
	"uttt/meta"
	"uttt/options"
	"uttt/player"
	"uttt/scheduler"
	"uttt/searcher"
)

var (
	ErrUnplayable  = errors.New("move not playable")
	ErrExpectation = errors.New("expectation failed")
)

// maxRounds bounds how long a replay waits for the worker to move.
const maxRounds = 1000

// Script is a game replayed in-process, on one goroutine, through the same
// coordinator and worker a Session uses. Moves are the human moves in
// order; the worker answers for marks assigned to the ai role.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	X string `yaml:"x"`
	O string `yaml:"o"`

	Seed               uint64 `yaml:"seed,omitempty"`
	SimulationsPerStep int    `yaml:"simulations_per_step,omitempty"`

	Moves  []string     `yaml:"moves"`
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation is checked against the final view. Empty fields are not
// checked.
type Expectation struct {
	Player     string         `yaml:"player,omitempty"`
	GameOver   *bool          `yaml:"game_over,omitempty"`
	Winner     string         `yaml:"winner,omitempty"`
	Plies      int            `yaml:"plies,omitempty"`
	SubWinners map[int]string `yaml:"sub_winners,omitempty"`
}

// LoadScript reads a script file, rejecting unknown fields.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var script Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := script.validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &script, nil
}

func (s *Script) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := s.assignment(); err != nil {
		return err
	}
	for i, m := range s.Moves {
		if _, err := game.ParseAction(m); err != nil {
			return fmt.Errorf("move %d: %w", i, err)
		}
	}
	return nil
}

func (s *Script) assignment() (player.Assignment, error) {
	return player.ParseAssignment(s.X, s.O)
}

// Replay is the outcome of running a script.
type Replay struct {
	Actions []string
	View    gamemaster.View
}

// Replay plays the script to the end of its moves or the end of the game,
// checking after every move that both boards agree.
func (s *Script) Replay(logger zerolog.Logger) (*Replay, error) {
	assignment, err := s.assignment()
	if err != nil {
		return nil, err
	}

	toWorker := communication.NewMailbox()
	toCoordinator := communication.NewMailbox()
	board := game.NewBoard()
	tree := searcher.NewTree(searcher.WithSeed(s.Seed))

	opts := options.Default()
	if s.SimulationsPerStep > 0 {
		opts.SimulationsPerStep = s.SimulationsPerStep
	}
	opts.ThinkingTime = 0
	worker := scheduler.New(tree, toCoordinator,
		scheduler.WithInbox(toWorker),
		scheduler.WithOptions(opts),
		scheduler.WithLogger(logger),
	)
	coordinator := gamemaster.New(board, toWorker, gamemaster.WithLogger(logger))

	if err := coordinator.StartGame(assignment); err != nil {
		return nil, err
	}
	worker.Drain()

	replay := &Replay{}
	next := 0
	for !coordinator.IsGameOver() {
		if coordinator.AwaitingHuman() {
			if next == len(s.Moves) {
				break
			}
			action, err := s.playHuman(coordinator, next)
			if err != nil {
				return replay, err
			}
			replay.Actions = append(replay.Actions, action.String())
			next++
			worker.Drain()
		} else {
			action, err := playWorker(worker, coordinator, toCoordinator)
			if err != nil {
				return replay, err
			}
			replay.Actions = append(replay.Actions, action.String())
		}

		if tree.Hash() != board.Hash() || worker.Diverged() {
			return replay, fmt.Errorf("%w after ply %d", gamemaster.ErrMirrorDiverged, coordinator.Ply())
		}
	}
	if next < len(s.Moves) {
		return replay, fmt.Errorf("%w: %d moves left after the game ended", ErrUnplayable, len(s.Moves)-next)
	}

	replay.View = coordinator.View()
	return replay, nil
}

func (s *Script) playHuman(c *gamemaster.Coordinator, i int) (game.Action, error) {
	action, err := game.ParseAction(s.Moves[i])
	if err != nil {
		return 0, err
	}
	col, row := action.Coords()
	cell := meta.BoardSize / 9
	played, ok, err := c.HandleClick((float64(col)+0.5)*cell, (float64(row)+0.5)*cell, meta.BoardSize)
	if err != nil {
		return 0, err
	}
	if !ok || played != action {
		return 0, fmt.Errorf("%w: move %d (%s) for %s", ErrUnplayable, i, action, c.Player())
	}
	return action, nil
}

func playWorker(worker *scheduler.Scheduler, c *gamemaster.Coordinator, inbox *communication.Mailbox) (game.Action, error) {
	ply := c.Ply()
	for i := 0; i < maxRounds && c.Ply() == ply; i++ {
		worker.Round()
		if err := c.Drain(inbox); err != nil {
			return 0, err
		}
	}
	if c.Ply() == ply {
		return 0, fmt.Errorf("worker did not move within %d rounds", maxRounds)
	}
	v := c.View()
	return game.ParseAction(v.Last)
}

// Check compares the replay's final view with the script's expectation.
func (s *Script) Check(r *Replay) error {
	e := s.Expect
	if e == nil {
		return nil
	}
	v := r.View

	var problems []string
	if e.Player != "" && !strings.EqualFold(e.Player, v.Player) {
		problems = append(problems, fmt.Sprintf("player: want %s, got %s", e.Player, v.Player))
	}
	if e.GameOver != nil && *e.GameOver != v.GameOver {
		problems = append(problems, fmt.Sprintf("game_over: want %t, got %t", *e.GameOver, v.GameOver))
	}
	if e.Winner != "" && !strings.EqualFold(e.Winner, v.Winner) {
		problems = append(problems, fmt.Sprintf("winner: want %s, got %q", e.Winner, v.Winner))
	}
	if e.Plies != 0 && e.Plies != v.Ply {
		problems = append(problems, fmt.Sprintf("plies: want %d, got %d", e.Plies, v.Ply))
	}
	for outer, want := range e.SubWinners {
		if outer < 0 || outer > 8 {
			problems = append(problems, fmt.Sprintf("sub_winners: no sub-board %d", outer))
			continue
		}
		if got := v.SubWinners[outer]; !strings.EqualFold(want, got) {
			problems = append(problems, fmt.Sprintf("sub-board %d: want %s, got %q", outer, want, got))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrExpectation, s.Name, strings.Join(problems, "; "))
	}
	return nil
}
