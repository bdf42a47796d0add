package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Action identifies one cell of the 9x9 grid as outer<<4 | inner, where outer
// is the sub-board and inner the cell inside it. Both are numbered 0..8 in
// row-major order.
type Action uint8

// NewAction encodes a (sub-board, cell) pair.
func NewAction(outer, inner int) Action {
	return Action(uint8(outer)<<4 | uint8(inner))
}

// ActionAt returns the action for a column and row of the full 9x9 grid.
func ActionAt(col, row int) Action {
	return NewAction(col/3+3*(row/3), col%3+3*(row%3))
}

func (a Action) Outer() int { return int(a >> 4) }

func (a Action) Inner() int { return int(a & 0x0F) }

// Valid reports whether both nibbles are in 0..8.
func (a Action) Valid() bool {
	return a.Outer() < 9 && a.Inner() < 9
}

// Coords returns the column and row of the action on the full 9x9 grid.
func (a Action) Coords() (col, row int) {
	outer, inner := a.Outer(), a.Inner()
	return 3*(outer%3) + inner%3, 3*(outer/3) + inner/3
}

func (a Action) String() string {
	return fmt.Sprintf("%d.%d", a.Outer(), a.Inner())
}

// ParseAction reads the "outer.inner" form produced by String.
func ParseAction(s string) (Action, error) {
	outerStr, innerStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return 0, fmt.Errorf("action %q: want outer.inner", s)
	}
	outer, err := strconv.Atoi(outerStr)
	if err != nil {
		return 0, fmt.Errorf("action %q: %w", s, err)
	}
	inner, err := strconv.Atoi(innerStr)
	if err != nil {
		return 0, fmt.Errorf("action %q: %w", s, err)
	}
	if outer < 0 || outer > 8 || inner < 0 || inner > 8 {
		return 0, fmt.Errorf("action %q: %w", s, ErrInvalidAction)
	}
	return NewAction(outer, inner), nil
}
