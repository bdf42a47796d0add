package options

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"uttt/game"
)

const toggleLiteral = "toggle"

// MarshalJSON encodes a Set flag as a boolean and a toggle as "toggle".
func (f Flag) MarshalJSON() ([]byte, error) {
	switch f.op {
	case flagSet:
		return json.Marshal(f.value)
	case flagToggle:
		return json.Marshal(toggleLiteral)
	default:
		return []byte("null"), nil
	}
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*f = Flag{}
	case bool:
		*f = Set(v)
	case string:
		if !strings.EqualFold(v, toggleLiteral) {
			return fmt.Errorf("flag: unexpected string %q", v)
		}
		*f = Toggle()
	default:
		return fmt.Errorf("flag: unexpected value %s", data)
	}
	return nil
}

// patchJSON is the wire form of Patch. Durations travel as milliseconds.
type patchJSON struct {
	TargetRoundTime    *float64        `json:"target_round_time,omitempty"`
	SimulationsPerStep *int            `json:"simulations_per_step,omitempty"`
	SimulationEnabled  *Flag           `json:"simulation_enabled,omitempty"`
	ThinkingTime       *float64        `json:"thinking_time,omitempty"`
	PlayingFor         map[string]Flag `json:"playing_for,omitempty"`
}

func toMillis(d time.Duration) *float64 {
	ms := float64(d) / float64(time.Millisecond)
	return &ms
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func (p Patch) MarshalJSON() ([]byte, error) {
	var w patchJSON
	if v, ok := p.TargetRoundTime.Get(); ok {
		w.TargetRoundTime = toMillis(v)
	}
	if v, ok := p.SimulationsPerStep.Get(); ok {
		w.SimulationsPerStep = &v
	}
	if !p.SimulationEnabled.IsZero() {
		f := p.SimulationEnabled
		w.SimulationEnabled = &f
	}
	if v, ok := p.ThinkingTime.Get(); ok {
		w.ThinkingTime = toMillis(v)
	}
	for i, f := range p.PlayingFor {
		if f.IsZero() {
			continue
		}
		if w.PlayingFor == nil {
			w.PlayingFor = make(map[string]Flag, game.NumPlayers)
		}
		w.PlayingFor[game.Player(i).String()] = f
	}
	return json.Marshal(w)
}

// UnmarshalJSON ignores fields and marks it does not know.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var w patchJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("options patch: %w", err)
	}
	*p = Patch{}
	if w.TargetRoundTime != nil {
		p.TargetRoundTime = Some(fromMillis(*w.TargetRoundTime))
	}
	if w.SimulationsPerStep != nil {
		p.SimulationsPerStep = Some(*w.SimulationsPerStep)
	}
	if w.SimulationEnabled != nil {
		p.SimulationEnabled = *w.SimulationEnabled
	}
	if w.ThinkingTime != nil {
		p.ThinkingTime = Some(fromMillis(*w.ThinkingTime))
	}
	for name, f := range w.PlayingFor {
		player, err := game.ParsePlayer(name)
		if err != nil {
			continue
		}
		p.PlayingFor[player] = f
	}
	return nil
}
