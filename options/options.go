// Package options holds the search scheduler's tuning parameters and the
// partial updates that change them.
package options

import (
	"time"

	"uttt/game"
	"uttt/meta"
)

// Options tunes the search scheduler. It is owned by the worker and only
// changes through Merge.
type Options struct {
	// TargetRoundTime is the wall-clock time one round of search steps
	// should take.
	TargetRoundTime time.Duration
	// SimulationsPerStep is passed to every search step.
	SimulationsPerStep int
	SimulationEnabled  bool
	// ThinkingTime is the accumulated search time after which the worker
	// commits a move for a mark it plays.
	ThinkingTime time.Duration
	PlayingFor   [game.NumPlayers]bool
}

func Default() Options {
	return Options{
		TargetRoundTime:    meta.TargetRoundTime,
		SimulationsPerStep: meta.SimulationsPerStep,
		SimulationEnabled:  false,
		ThinkingTime:       meta.ThinkingTime,
	}
}

// Plays reports whether the worker commits moves for p.
func (o Options) Plays(p game.Player) bool {
	return int(p) < len(o.PlayingFor) && o.PlayingFor[p]
}

// Merge returns o with every field set in p applied. Non-positive durations
// and step sizes are not applied.
func (o Options) Merge(p Patch) Options {
	if v, ok := p.TargetRoundTime.Get(); ok && v > 0 {
		o.TargetRoundTime = v
	}
	if v, ok := p.SimulationsPerStep.Get(); ok && v > 0 {
		o.SimulationsPerStep = v
	}
	o.SimulationEnabled = p.SimulationEnabled.Apply(o.SimulationEnabled)
	if v, ok := p.ThinkingTime.Get(); ok && v >= 0 {
		o.ThinkingTime = v
	}
	for i, f := range p.PlayingFor {
		o.PlayingFor[i] = f.Apply(o.PlayingFor[i])
	}
	return o
}
