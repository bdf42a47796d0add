// Package display pushes coordinator views to whatever shows the game and
// turns user input back into coordinator commands.
package display

import (
	"strings"

	"uttt/gamemaster"
	"uttt/player"
)

// Display receives a fresh view after every change on the interactive side.
// Update must not block for long; it runs on the coordinator's goroutine.
type Display interface {
	Update(view gamemaster.View)
}

// Controller accepts user commands. Implementations must be safe to call
// from any goroutine.
type Controller interface {
	Click(x, y, boardSize float64) error
	Toggle() error
	NewGame(assignment player.Assignment) error
}

// Multi fans a view out to several displays in order.
type Multi []Display

func (m Multi) Update(view gamemaster.View) {
	for _, d := range m {
		d.Update(view)
	}
}

// Render draws the 9x9 grid as text, with sub-boards separated by rules.
// A won sub-board is filled with its winner's mark in lower case.
func Render(view gamemaster.View) string {
	var sb strings.Builder
	for row := 0; row < 9; row++ {
		if row > 0 && row%3 == 0 {
			sb.WriteString("------+-------+------\n")
		}
		for col := 0; col < 9; col++ {
			if col > 0 && col%3 == 0 {
				sb.WriteString("| ")
			}
			outer := col/3 + 3*(row/3)
			inner := col%3 + 3*(row%3)
			sb.WriteString(cellGlyph(view, outer, inner))
			if col < 8 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellGlyph(view gamemaster.View, outer, inner int) string {
	if mark := view.Cells[outer][inner]; mark != "" {
		return mark
	}
	if w := view.SubWinners[outer]; w != "" {
		return strings.ToLower(w)
	}
	return "."
}
