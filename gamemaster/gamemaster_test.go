package gamemaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"uttt/communication"
	"uttt/game"
	"uttt/metrics"
	"uttt/options"
	"uttt/player"
	"uttt/scheduler"
	"uttt/searcher"
)

const boardSize = 900.0

// click returns the pixel at the centre of the cell for a.
func click(a game.Action) (float64, float64) {
	col, row := a.Coords()
	return float64(col)*100 + 50, float64(row)*100 + 50
}

func play(c *Coordinator, a game.Action) (game.Action, bool, error) {
	x, y := click(a)
	return c.HandleClick(x, y, boardSize)
}

func received(outbox *communication.Mailbox) []communication.Message {
	var msgs []communication.Message
	outbox.Drain(func(msg communication.Message) { msgs = append(msgs, msg) })
	return msgs
}

func started(t *testing.T, assignment player.Assignment) (*Coordinator, *game.Board, *communication.Mailbox) {
	t.Helper()
	board := game.NewBoard()
	outbox := communication.NewMailbox()
	c := New(board, outbox)
	require.NoError(t, c.StartGame(assignment))
	received(outbox)
	return c, board, outbox
}

func TestStartGame(t *testing.T) {
	t.Run("sends new_game then the assignment", func(t *testing.T) {
		outbox := communication.NewMailbox()
		c := New(game.NewBoard(), outbox)
		require.NoError(t, c.StartGame(player.NewAssignment(player.Human, player.AI)))

		msgs := received(outbox)
		require.Len(t, msgs, 2)
		require.Equal(t, communication.NewGame(1), msgs[0])
		require.Equal(t, communication.KindSetOptions, msgs[1].Kind)
		require.Equal(t, options.ForAssignment([game.NumPlayers]bool{false, true}), msgs[1].Patch)
		require.True(t, c.Searching())
	})

	t.Run("human only game leaves search off", func(t *testing.T) {
		c, _, _ := started(t, player.NewAssignment(player.Human, player.Human))
		require.False(t, c.Searching())
	})

	t.Run("each game gets a new epoch", func(t *testing.T) {
		c, board, _ := started(t, player.NewAssignment(player.Human, player.AI))
		_, ok, err := play(c, game.NewAction(4, 4))
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, c.StartGame(player.NewAssignment(player.AI, player.Human)))
		require.Equal(t, uint64(2), c.Epoch())
		require.Zero(t, c.Ply())
		require.Zero(t, board.Ply())
	})
}

func TestHandleClick(t *testing.T) {
	t.Run("plays and forwards a human move", func(t *testing.T) {
		c, board, outbox := started(t, player.NewAssignment(player.Human, player.AI))

		x, y := click(game.NewAction(4, 4))
		action, ok, err := c.HandleClick(x, y, boardSize)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, game.NewAction(4, 4), action)

		msgs := received(outbox)
		require.Equal(t, []communication.Message{
			communication.DoAction(1, 0, action, board.Hash()),
		}, msgs)
		require.Equal(t, 1, c.Ply())
		require.Equal(t, game.O, c.Player())
	})

	t.Run("ignores clicks on the worker's turn", func(t *testing.T) {
		c, _, outbox := started(t, player.NewAssignment(player.AI, player.Human))
		_, ok, err := play(c, game.NewAction(0, 0))
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, outbox.Len())
	})

	t.Run("ignores illegal and out of bounds clicks", func(t *testing.T) {
		c, _, outbox := started(t, player.NewAssignment(player.Human, player.Human))
		_, ok, err := play(c, game.NewAction(4, 4))
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, _ = play(c, game.NewAction(4, 4))
		require.False(t, ok)
		_, ok, _ = play(c, game.NewAction(0, 0))
		require.False(t, ok, "sub-board 0 is not active")
		_, ok, _ = c.HandleClick(-1, 10, boardSize)
		require.False(t, ok)
		_, ok, _ = c.HandleClick(10, boardSize, boardSize)
		require.False(t, ok)

		require.Len(t, received(outbox), 1)
	})

	t.Run("ignores clicks before the first game", func(t *testing.T) {
		c := New(game.NewBoard(), communication.NewMailbox())
		_, ok, err := play(c, game.NewAction(4, 4))
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestReceive(t *testing.T) {
	best := game.SearchStats{Action: game.NewAction(4, 2), Sims: 300, Wins: 170}
	round := metrics.Round{Round: 4, TotalSims: 300, SimRate: 1500}

	t.Run("stats for the current position become the suggestion", func(t *testing.T) {
		c, _, _ := started(t, player.NewAssignment(player.Human, player.AI))
		require.NoError(t, c.Receive(communication.Stats(1, 0, best, round)))

		s, ok := c.Suggestion()
		require.True(t, ok)
		require.Equal(t, best, s)
		require.Equal(t, round, c.Metrics())
	})

	t.Run("every applied action clears the suggestion", func(t *testing.T) {
		c, board, _ := started(t, player.NewAssignment(player.AI, player.Human))
		require.NoError(t, c.Receive(communication.Stats(1, 0, best, round)))

		expected := game.NewBoard()
		expected.DoActionMut(best.Action)
		require.NoError(t, c.Receive(communication.DoAction(1, 0, best.Action, expected.Hash())))
		_, ok := c.Suggestion()
		require.False(t, ok)
		require.Equal(t, expected.Hash(), board.Hash())

		// A round that finished before the worker saw the move
		require.NoError(t, c.Receive(communication.Stats(1, 0, best, round)))
		_, ok = c.Suggestion()
		require.False(t, ok)

		require.NoError(t, c.Receive(communication.Stats(1, 1, game.SearchStats{Action: game.NewAction(2, 0), Sims: 1}, round)))
		_, ok = c.Suggestion()
		require.True(t, ok)

		_, played, err := play(c, game.NewAction(2, 0))
		require.NoError(t, err)
		require.True(t, played)
		_, ok = c.Suggestion()
		require.False(t, ok)
	})

	t.Run("messages from a previous game are dropped", func(t *testing.T) {
		c, board, _ := started(t, player.NewAssignment(player.AI, player.AI))
		require.NoError(t, c.StartGame(player.NewAssignment(player.AI, player.AI)))

		require.NoError(t, c.Receive(communication.DoAction(1, 0, game.NewAction(4, 4), 0)))
		require.NoError(t, c.Receive(communication.Stats(1, 0, best, round)))
		require.Zero(t, board.Ply())
		_, ok := c.Suggestion()
		require.False(t, ok)
		require.False(t, c.Diverged())
	})

	t.Run("out of order action diverges until the next game", func(t *testing.T) {
		c, board, _ := started(t, player.NewAssignment(player.Human, player.AI))
		err := c.Receive(communication.DoAction(1, 3, game.NewAction(4, 4), 0))
		require.ErrorIs(t, err, ErrMirrorDiverged)
		require.True(t, c.Diverged())
		require.Zero(t, board.Ply())

		_, _, err = play(c, game.NewAction(4, 4))
		require.ErrorIs(t, err, ErrMirrorDiverged)
		require.ErrorIs(t, c.Receive(communication.DoAction(1, 0, game.NewAction(4, 4), 0)), ErrMirrorDiverged)

		require.NoError(t, c.StartGame(player.NewAssignment(player.Human, player.AI)))
		require.False(t, c.Diverged())
	})

	t.Run("illegal action diverges", func(t *testing.T) {
		c, _, _ := started(t, player.NewAssignment(player.Human, player.AI))
		_, ok, err := play(c, game.NewAction(4, 4))
		require.NoError(t, err)
		require.True(t, ok)

		err = c.Receive(communication.DoAction(1, 1, game.NewAction(4, 4), 0))
		require.ErrorIs(t, err, ErrMirrorDiverged)
	})

	t.Run("hash mismatch diverges", func(t *testing.T) {
		c, _, _ := started(t, player.NewAssignment(player.AI, player.Human))
		err := c.Receive(communication.DoAction(1, 0, game.NewAction(4, 4), 42))
		require.ErrorIs(t, err, ErrMirrorDiverged)
	})

	t.Run("drain reports the first error and keeps going", func(t *testing.T) {
		c, _, _ := started(t, player.NewAssignment(player.AI, player.Human))
		inbox := communication.NewMailbox()
		require.NoError(t, inbox.Send(communication.DoAction(1, 5, game.NewAction(4, 4), 0)))
		require.NoError(t, inbox.Send(communication.Stats(1, 0, best, round)))

		require.ErrorIs(t, c.Drain(inbox), ErrMirrorDiverged)
		require.Zero(t, inbox.Len())
	})
}

func TestToggleSimulation(t *testing.T) {
	c, _, outbox := started(t, player.NewAssignment(player.Human, player.AI))
	require.NoError(t, c.ToggleSimulation())
	require.False(t, c.Searching())
	require.NoError(t, c.ToggleSimulation())
	require.True(t, c.Searching())

	msgs := received(outbox)
	require.Len(t, msgs, 2)
	for _, msg := range msgs {
		require.Equal(t, communication.KindSetOptions, msg.Kind)
		require.True(t, msg.Patch.SimulationEnabled.IsToggle())
	}

	opts := options.Default()
	for _, msg := range msgs {
		opts = opts.Merge(msg.Patch)
	}
	require.Equal(t, options.Default(), opts)
}

func TestMirrorsStayInStep(t *testing.T) {
	toWorker := communication.NewMailbox()
	toCoordinator := communication.NewMailbox()

	board := game.NewBoard()
	c := New(board, toWorker)
	tree := searcher.NewTree(searcher.WithSeed(7))
	s := scheduler.New(tree, toCoordinator, scheduler.WithInbox(toWorker))

	require.NoError(t, c.StartGame(player.NewAssignment(player.Human, player.AI)))
	require.NoError(t, c.SetOptions(options.Patch{
		ThinkingTime:       options.Some(time.Duration(0)),
		SimulationsPerStep: options.Some(4),
	}))

	for moves := 0; moves < 30 && !c.IsGameOver(); moves++ {
		if c.AwaitingHuman() {
			x, y := click(board.LegalActions()[0])
			_, ok, err := c.HandleClick(x, y, boardSize)
			require.NoError(t, err)
			require.True(t, ok)

			if !board.IsGameOver() {
				// The worker has not replied yet
				_, ok, err = play(c, board.LegalActions()[0])
				require.NoError(t, err)
				require.False(t, ok)
			}
		}

		s.Drain()
		s.Round()
		require.NoError(t, c.Drain(toCoordinator))

		require.False(t, s.Diverged())
		require.Equal(t, tree.Hash(), board.Hash())
		require.Equal(t, tree.CurrentPlayer(), board.CurrentPlayer())
		require.Equal(t, tree.IsGameOver(), board.IsGameOver())
		require.Equal(t, s.Ply(), c.Ply())
	}
}

func TestSetOptionsKeepsAssignment(t *testing.T) {
	toWorker := communication.NewMailbox()
	toCoordinator := communication.NewMailbox()

	board := game.NewBoard()
	c := New(board, toWorker)
	tree := searcher.NewTree(searcher.WithSeed(7))
	s := scheduler.New(tree, toCoordinator, scheduler.WithInbox(toWorker))

	require.NoError(t, c.StartGame(player.NewAssignment(player.Human, player.AI)))
	s.Drain()
	require.NoError(t, c.SetOptions(options.Patch{
		ThinkingTime: options.Some(time.Duration(0)),
		PlayingFor:   [game.NumPlayers]options.Flag{game.X: options.Set(true)},
	}))

	msgs := received(toWorker)
	require.Len(t, msgs, 1)
	require.Equal(t, [game.NumPlayers]options.Flag{}, msgs[0].Patch.PlayingFor)
	_, ok := msgs[0].Patch.ThinkingTime.Get()
	require.True(t, ok)
	for _, msg := range msgs {
		s.Handle(msg)
	}
	require.False(t, s.Options().Plays(game.X))
	require.True(t, s.Options().Plays(game.O))

	// The worker searches X's turn but leaves the move to the human
	s.Round()
	_, ok, err := play(c, game.NewAction(5, 6))
	require.NoError(t, err)
	require.True(t, ok)

	s.Drain()
	require.NoError(t, c.Drain(toCoordinator))
	require.False(t, s.Diverged())
	require.False(t, c.Diverged())
	require.Equal(t, tree.Hash(), board.Hash())
	require.Equal(t, player.NewAssignment(player.Human, player.AI), c.Assignment())
}

func TestWorkerOutputQueuedBehindHumanMove(t *testing.T) {
	toWorker := communication.NewMailbox()
	toCoordinator := communication.NewMailbox()

	board := game.NewBoard()
	c := New(board, toWorker)
	tree := searcher.NewTree(searcher.WithSeed(11))
	s := scheduler.New(tree, toCoordinator, scheduler.WithInbox(toWorker))

	require.NoError(t, c.StartGame(player.NewAssignment(player.Human, player.AI)))
	require.NoError(t, c.SetOptions(options.Patch{
		ThinkingTime:       options.Some(time.Duration(0)),
		SimulationsPerStep: options.Some(4),
	}))
	s.Drain()

	// The human moves while the worker is still mid-round on the old position
	_, ok, err := play(c, game.NewAction(4, 4))
	require.NoError(t, err)
	require.True(t, ok)
	s.Round()
	require.Equal(t, 0, s.Ply(), "The worker must not move for the human's mark")

	// Then the worker sees the human move and answers it
	s.Drain()
	s.Round()
	require.Equal(t, 2, s.Ply())

	// Stats from before the human move sit ahead of the worker's action
	msgs := received(toCoordinator)
	require.GreaterOrEqual(t, len(msgs), 3)
	require.Equal(t, communication.KindStats, msgs[0].Kind)
	require.Equal(t, 0, msgs[0].Ply)
	require.Equal(t, communication.KindDoAction, msgs[len(msgs)-1].Kind)
	require.Equal(t, 1, msgs[len(msgs)-1].Ply)

	for _, msg := range msgs {
		require.NoError(t, c.Receive(msg))
	}
	require.False(t, c.Diverged())
	require.Equal(t, 2, c.Ply())
	require.Equal(t, tree.Hash(), board.Hash())
	require.Equal(t, tree.CurrentPlayer(), board.CurrentPlayer())
	_, ok = c.Suggestion()
	require.False(t, ok, "Stats for an earlier ply must not become the suggestion")
}

func TestView(t *testing.T) {
	c, _, _ := started(t, player.NewAssignment(player.Human, player.AI))
	_, ok, err := play(c, game.NewAction(4, 4))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.Receive(communication.Stats(1, 1,
		game.SearchStats{Action: game.NewAction(4, 0), Sims: 10, Wins: 4},
		metrics.Round{SimTime: 1500 * time.Microsecond, TotalSims: 10})))

	v := c.View()
	require.Equal(t, "O", v.Player)
	require.Equal(t, "X", v.Cells[4][4])
	require.Equal(t, 4, v.Active)
	require.Equal(t, "4.4", v.Last)
	require.NotNil(t, v.Suggestion)
	require.Equal(t, "4.0", v.Suggestion.Action)
	require.Equal(t, 3, v.Suggestion.Col)
	require.Equal(t, 3, v.Suggestion.Row)
	require.InDelta(t, 0.4, v.Suggestion.WinRate, 1e-9)
	require.InDelta(t, 1.5, v.Stats.SimTimeMs, 1e-9)
	require.False(t, v.GameOver)
	require.Empty(t, v.Winner)
}
