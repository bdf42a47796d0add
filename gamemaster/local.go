package gamemaster

import "uttt/game"

// Board is the rules capability behind the coordinator's local mirror.
type Board interface {
	DoActionMut(action game.Action)
	Reset()
	CurrentPlayer() game.Player
	IsGameOver() bool
	ActionForClick(x, y, boardSize float64) (game.Action, bool)
}

// Optional capabilities. Boards that have them get remote actions checked
// for legality and hash agreement, and a fully populated View.
type (
	legality interface {
		IsLegal(action game.Action) bool
	}

	hasher interface {
		Hash() game.StateHash
	}

	cellReader interface {
		Cell(outer, inner int) (game.Player, bool)
		SubWinner(outer int) (game.Player, bool)
		Active() (int, bool)
		Winner() (game.Player, bool)
	}
)

func hashOf(b Board) game.StateHash {
	if h, ok := b.(hasher); ok {
		return h.Hash()
	}
	return 0
}

func legal(b Board, action game.Action) bool {
	if l, ok := b.(legality); ok {
		return l.IsLegal(action)
	}
	return action.Valid()
}
