package options

import (
	"encoding/json"
	"testing"
	"time"

	"uttt/game"

	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Run("zero patch changes nothing", func(t *testing.T) {
		o := Default()
		require.Equal(t, o, o.Merge(Patch{}))
	})

	t.Run("explicit values", func(t *testing.T) {
		o := Default().Merge(Patch{
			TargetRoundTime:    Some(50 * time.Millisecond),
			SimulationsPerStep: Some(1000),
			SimulationEnabled:  Set(true),
			ThinkingTime:       Some(500 * time.Millisecond),
			PlayingFor:         [game.NumPlayers]Flag{Set(true), {}},
		})

		require.Equal(t, 50*time.Millisecond, o.TargetRoundTime)
		require.Equal(t, 1000, o.SimulationsPerStep)
		require.True(t, o.SimulationEnabled)
		require.Equal(t, 500*time.Millisecond, o.ThinkingTime)
		require.True(t, o.Plays(game.X))
		require.False(t, o.Plays(game.O))
	})

	t.Run("non-positive values are not applied", func(t *testing.T) {
		o := Default()
		got := o.Merge(Patch{TargetRoundTime: Some(time.Duration(0)), SimulationsPerStep: Some(-3)})

		require.Equal(t, o.TargetRoundTime, got.TargetRoundTime)
		require.Equal(t, o.SimulationsPerStep, got.SimulationsPerStep)
	})

	t.Run("two toggles restore the original value", func(t *testing.T) {
		for _, start := range []bool{true, false} {
			o := Default()
			o.SimulationEnabled = start
			toggle := Patch{SimulationEnabled: Toggle()}

			once := o.Merge(toggle)
			require.Equal(t, !start, once.SimulationEnabled)
			require.Equal(t, start, once.Merge(toggle).SimulationEnabled)
		}
	})

	t.Run("merge does not alias the receiver", func(t *testing.T) {
		o := Default()
		_ = o.Merge(Patch{PlayingFor: [game.NumPlayers]Flag{Set(true), Set(true)}})
		require.False(t, o.Plays(game.X))
	})
}

func TestForAssignment(t *testing.T) {
	o := Default().Merge(ForAssignment([game.NumPlayers]bool{false, true}))
	require.True(t, o.SimulationEnabled)
	require.False(t, o.Plays(game.X))
	require.True(t, o.Plays(game.O))

	o = o.Merge(ForAssignment([game.NumPlayers]bool{}))
	require.False(t, o.SimulationEnabled)
	require.False(t, o.Plays(game.O))
}

func TestPatchJSON(t *testing.T) {
	t.Run("encodes only set fields", func(t *testing.T) {
		data, err := json.Marshal(Patch{
			SimulationEnabled: Toggle(),
			ThinkingTime:      Some(1500 * time.Millisecond),
			PlayingFor:        [game.NumPlayers]Flag{{}, Set(false)},
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"simulation_enabled":"toggle","thinking_time":1500,"playing_for":{"O":false}}`, string(data))
	})

	t.Run("decodes literals and toggles, ignoring unknown fields", func(t *testing.T) {
		var p Patch
		err := json.Unmarshal([]byte(`{
			"target_round_time": 100,
			"simulation_enabled": "toggle",
			"playing_for": {"X": true, "Z": true},
			"colour": "blue"
		}`), &p)
		require.NoError(t, err)

		d, ok := p.TargetRoundTime.Get()
		require.True(t, ok)
		require.Equal(t, 100*time.Millisecond, d)
		require.True(t, p.SimulationEnabled.IsToggle())
		v, ok := p.PlayingFor[game.X].Value()
		require.True(t, ok)
		require.True(t, v)
		require.True(t, p.PlayingFor[game.O].IsZero())
		_, ok = p.SimulationsPerStep.Get()
		require.False(t, ok)
	})

	t.Run("rejects malformed flags", func(t *testing.T) {
		var p Patch
		require.Error(t, json.Unmarshal([]byte(`{"simulation_enabled":"maybe"}`), &p))
	})
}
