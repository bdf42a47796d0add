// Package player decides who controls each mark.
package player

import (
	"errors"
	"fmt"
	"strings"

	"uttt/game"
)

var ErrUnknownRole = errors.New("unknown role")

// Role says who chooses the moves for a mark.
type Role uint8

const (
	Human Role = iota
	AI
)

func (r Role) String() string {
	switch r {
	case Human:
		return "human"
	case AI:
		return "ai"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human", "h":
		return Human, nil
	case "ai", "computer", "c":
		return AI, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownRole, s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Assignment maps each mark to its role for one game.
type Assignment [game.NumPlayers]Role

func NewAssignment(x, o Role) Assignment {
	return Assignment{game.X: x, game.O: o}
}

// ParseAssignment reads the roles for X and O.
func ParseAssignment(x, o string) (Assignment, error) {
	rx, err := ParseRole(x)
	if err != nil {
		return Assignment{}, fmt.Errorf("player X: %w", err)
	}
	ro, err := ParseRole(o)
	if err != nil {
		return Assignment{}, fmt.Errorf("player O: %w", err)
	}
	return NewAssignment(rx, ro), nil
}

func (a Assignment) Role(p game.Player) Role { return a[p] }

func (a Assignment) IsAI(p game.Player) bool { return a[p] == AI }

// AI lists which marks the worker should play.
func (a Assignment) AI() [game.NumPlayers]bool {
	var ai [game.NumPlayers]bool
	for i, role := range a {
		ai[i] = role == AI
	}
	return ai
}

func (a Assignment) String() string {
	return fmt.Sprintf("X=%s O=%s", a[game.X], a[game.O])
}
