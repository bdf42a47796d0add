package game

import (
	"fmt"
	"strings"
)

// Player is the mark placed by a side.
type Player uint8

const (
	X Player = iota
	O
)

const NumPlayers = 2

// Players lists the marks in turn order.
var Players = [NumPlayers]Player{X, O}

func (p Player) Other() Player {
	if p == X {
		return O
	}
	return X
}

func (p Player) String() string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return fmt.Sprintf("Player(%d)", uint8(p))
	}
}

func ParsePlayer(s string) (Player, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return 0, fmt.Errorf("unknown player %q", s)
}
