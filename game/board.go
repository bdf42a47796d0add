package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// owner is a cell or sub-board occupant: 0 when empty, otherwise Player+1.
type owner uint8

const none owner = 0

func ownerOf(p Player) owner { return owner(p) + 1 }

func (o owner) player() (Player, bool) {
	if o == none {
		return 0, false
	}
	return Player(o - 1), true
}

// lines are the eight winning triples of a 3x3 grid.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func winnerOf(grid [9]owner) owner {
	for _, l := range lines {
		if a := grid[l[0]]; a != none && a == grid[l[1]] && a == grid[l[2]] {
			return a
		}
	}
	return none
}

// Board is the ultimate tic-tac-toe rules engine. The zero value is not
// ready for use; call NewBoard.
type Board struct {
	cells   [9][9]owner
	winners [9]owner
	filled  [9]int
	active  int // sub-board the current player must play in, -1 for any
	player  Player
	over    bool
	winner  owner
	ply     int
	legal   []Action
}

func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// Reset returns the board to the opening position.
func (b *Board) Reset() {
	*b = Board{active: -1, player: X, legal: make([]Action, 0, 81)}
	b.updateLegal()
}

func (b *Board) Clone() *Board {
	c := *b
	c.legal = append(make([]Action, 0, cap(b.legal)), b.legal...)
	return &c
}

func (b *Board) CurrentPlayer() Player { return b.player }

func (b *Board) IsGameOver() bool { return b.over }

// Ply is the number of actions applied since the last Reset.
func (b *Board) Ply() int { return b.ply }

// Winner returns the player owning three sub-boards in a line, if any.
func (b *Board) Winner() (Player, bool) { return b.winner.player() }

// Active returns the sub-board the current player is confined to.
func (b *Board) Active() (int, bool) { return b.active, b.active >= 0 }

func (b *Board) Cell(outer, inner int) (Player, bool) { return b.cells[outer][inner].player() }

func (b *Board) SubWinner(outer int) (Player, bool) { return b.winners[outer].player() }

// LegalActions returns the actions available to the current player. The
// returned slice must not be modified.
func (b *Board) LegalActions() []Action { return b.legal }

func (b *Board) IsLegal(a Action) bool {
	if b.over || !a.Valid() {
		return false
	}
	if b.active >= 0 && a.Outer() != b.active {
		return false
	}
	return b.winners[a.Outer()] == none && b.cells[a.Outer()][a.Inner()] == none
}

// Play applies a to the board, rejecting illegal actions.
func (b *Board) Play(a Action) error {
	if !b.IsLegal(a) {
		return fmt.Errorf("play %s as %s: %w", a, b.player, ErrInvalidAction)
	}
	b.apply(a)
	return nil
}

// DoActionMut applies a legal action in place. It panics on an illegal one;
// callers holding untrusted input use Play.
func (b *Board) DoActionMut(a Action) {
	if err := b.Play(a); err != nil {
		panic(err)
	}
}

func (b *Board) apply(a Action) {
	outer, inner := a.Outer(), a.Inner()
	mark := ownerOf(b.player)
	b.cells[outer][inner] = mark
	b.filled[outer]++
	b.ply++

	if winnerOf(b.cells[outer]) == mark {
		b.winners[outer] = mark
		if winnerOf(b.winners) == mark {
			b.over = true
			b.winner = mark
			b.legal = b.legal[:0]
			return
		}
	}

	// The next player is sent to the sub-board matching the cell just played,
	// unless it is already decided.
	if b.winners[inner] == none && b.filled[inner] < 9 {
		b.active = inner
	} else {
		b.active = -1
	}
	b.player = b.player.Other()
	b.updateLegal()
	if len(b.legal) == 0 {
		b.over = true
	}
}

func (b *Board) updateLegal() {
	b.legal = b.legal[:0]
	if b.over {
		return
	}
	for outer := 0; outer < 9; outer++ {
		if b.active >= 0 && outer != b.active {
			continue
		}
		if b.winners[outer] != none {
			continue
		}
		for inner := 0; inner < 9; inner++ {
			if b.cells[outer][inner] == none {
				b.legal = append(b.legal, NewAction(outer, inner))
			}
		}
	}
}

// ActionForClick maps a point inside a square board of side boardSize to the
// legal action under it.
func (b *Board) ActionForClick(x, y, boardSize float64) (Action, bool) {
	if boardSize <= 0 {
		return 0, false
	}
	cellX := x * 9 / boardSize
	cellY := y * 9 / boardSize
	if cellX < 0 || cellY < 0 || cellX >= 9 || cellY >= 9 {
		return 0, false
	}
	a := ActionAt(int(math.Floor(cellX)), int(math.Floor(cellY)))
	if !b.IsLegal(a) {
		return 0, false
	}
	return a, true
}

// Hash digests every field that influences future play.
func (b *Board) Hash() StateHash {
	h := fnv.New64a()
	var buf [81 + 9 + 4]byte
	for outer := range b.cells {
		for inner, c := range b.cells[outer] {
			buf[outer*9+inner] = byte(c)
		}
	}
	for i, w := range b.winners {
		buf[81+i] = byte(w)
	}
	buf[90] = byte(b.active + 1)
	buf[91] = byte(b.player)
	if b.over {
		buf[92] = 1
	}
	buf[93] = byte(b.winner)
	h.Write(buf[:])
	var ply [8]byte
	binary.LittleEndian.PutUint64(ply[:], uint64(b.ply))
	h.Write(ply[:])
	return StateHash(h.Sum64())
}
