package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAction(t *testing.T) {
	t.Run("nibbles", func(t *testing.T) {
		a := NewAction(7, 3)
		require.Equal(t, Action(0x73), a)
		require.Equal(t, 7, a.Outer())
		require.Equal(t, 3, a.Inner())
		require.True(t, a.Valid())
		require.False(t, Action(0x9F).Valid())
	})

	t.Run("grid coordinates", func(t *testing.T) {
		for col := 0; col < 9; col++ {
			for row := 0; row < 9; row++ {
				gotCol, gotRow := ActionAt(col, row).Coords()
				require.Equal(t, col, gotCol)
				require.Equal(t, row, gotRow)
			}
		}
	})

	t.Run("parse", func(t *testing.T) {
		a, err := ParseAction(" 8.0 ")
		require.NoError(t, err)
		require.Equal(t, NewAction(8, 0), a)
		require.Equal(t, "8.0", a.String())

		_, err = ParseAction("9.0")
		require.ErrorIs(t, err, ErrInvalidAction)
		_, err = ParseAction("40")
		require.Error(t, err)
	})
}

func TestPlayer(t *testing.T) {
	require.Equal(t, O, X.Other())
	require.Equal(t, X, O.Other())

	p, err := ParsePlayer("o")
	require.NoError(t, err)
	require.Equal(t, O, p)

	_, err = ParsePlayer("z")
	require.Error(t, err)
}
