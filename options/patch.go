package options

import (
	"time"

	"uttt/game"
)

type flagOp uint8

const (
	flagKeep flagOp = iota
	flagSet
	flagToggle
)

// Flag is a partial update of a boolean field: unchanged (the zero value),
// set to an explicit value, or toggled.
type Flag struct {
	op    flagOp
	value bool
}

func Set(value bool) Flag { return Flag{op: flagSet, value: value} }

func Toggle() Flag { return Flag{op: flagToggle} }

// IsZero reports whether the flag leaves the field unchanged.
func (f Flag) IsZero() bool { return f.op == flagKeep }

func (f Flag) IsToggle() bool { return f.op == flagToggle }

// Value returns the explicit value of a Set flag.
func (f Flag) Value() (bool, bool) { return f.value, f.op == flagSet }

func (f Flag) Apply(current bool) bool {
	switch f.op {
	case flagSet:
		return f.value
	case flagToggle:
		return !current
	default:
		return current
	}
}

// Optional is a partial update of a non-boolean field.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](value T) Optional[T] { return Optional[T]{value: value, set: true} }

func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// Patch is a partial Options update. The zero Patch changes nothing.
type Patch struct {
	TargetRoundTime    Optional[time.Duration]
	SimulationsPerStep Optional[int]
	SimulationEnabled  Flag
	ThinkingTime       Optional[time.Duration]
	PlayingFor         [game.NumPlayers]Flag
}

// ForAssignment is the patch a coordinator sends at game start: the worker
// plays exactly the marks in ai, and searches iff it plays at least one.
func ForAssignment(ai [game.NumPlayers]bool) Patch {
	var p Patch
	enabled := false
	for i, plays := range ai {
		p.PlayingFor[i] = Set(plays)
		enabled = enabled || plays
	}
	p.SimulationEnabled = Set(enabled)
	return p
}
