package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"uttt/gamemaster"
	"uttt/player"
)

type call struct {
	name       string
	x, y, size float64
	assignment player.Assignment
}

type fakeController struct {
	calls []call
}

func (c *fakeController) Click(x, y, size float64) error {
	c.calls = append(c.calls, call{name: "click", x: x, y: y, size: size})
	return nil
}

func (c *fakeController) Toggle() error {
	c.calls = append(c.calls, call{name: "toggle"})
	return nil
}

func (c *fakeController) NewGame(a player.Assignment) error {
	c.calls = append(c.calls, call{name: "new_game", assignment: a})
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestUpdate(t *testing.T) {
	controller := &fakeController{}
	assignment := player.NewAssignment(player.Human, player.AI)
	m := NewModel(controller, NewViews(), assignment)

	t.Run("cursor stays on the board", func(t *testing.T) {
		mm := m
		for i := 0; i < 12; i++ {
			mm, _ = send(t, mm, key("up"))
			mm, _ = send(t, mm, key("left"))
		}
		require.Equal(t, 0, mm.row)
		require.Equal(t, 0, mm.col)
	})

	t.Run("enter clicks the centre of the cursor cell", func(t *testing.T) {
		mm, _ := send(t, m, key("l"))
		mm, cmd := send(t, mm, key("enter"))
		require.NotNil(t, cmd)
		require.Nil(t, cmd())

		last := controller.calls[len(controller.calls)-1]
		require.Equal(t, "click", last.name)
		require.Equal(t, 550.0, last.x)
		require.Equal(t, 450.0, last.y)
		require.Equal(t, 900.0, last.size)
		require.Equal(t, 5, mm.col)
	})

	t.Run("toggle and new game", func(t *testing.T) {
		_, cmd := send(t, m, key("t"))
		cmd()
		_, cmd = send(t, m, key("n"))
		cmd()

		n := len(controller.calls)
		require.Equal(t, "toggle", controller.calls[n-2].name)
		require.Equal(t, call{name: "new_game", assignment: assignment}, controller.calls[n-1])
	})

	t.Run("quit", func(t *testing.T) {
		_, cmd := send(t, m, key("q"))
		require.Equal(t, tea.Quit(), cmd())
	})

	t.Run("renders the latest view", func(t *testing.T) {
		require.Contains(t, m.View(), "starting")

		var v gamemaster.View
		v.Player = "O"
		v.Cells[4][4] = "X"
		v.Active = 4
		v.Searching = true
		v.Assignment = assignment
		v.Suggestion = &gamemaster.Suggestion{Action: "4.0", Col: 3, Row: 3, Sims: 40, WinRate: 0.5}

		mm, cmd := send(t, m, viewMsg(v))
		require.NotNil(t, cmd)
		out := mm.View()
		require.Contains(t, out, "O to move")
		require.Contains(t, out, "best 4.0 50% of 40")
		require.Contains(t, out, "searching")
		require.Contains(t, out, "X")
	})
}

func TestViewsKeepsTheNewest(t *testing.T) {
	views := NewViews()
	views.Update(gamemaster.View{Ply: 1})
	views.Update(gamemaster.View{Ply: 2})

	msg := views.next()()
	require.Equal(t, 2, gamemaster.View(msg.(viewMsg)).Ply)
}
