// Package tui is the terminal front end for `uttt play`.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"uttt/display"
	"uttt/gamemaster"
	"uttt/meta"
	"uttt/player"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 2)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	xStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)
	oStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	activeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	cursorStyle     = lipgloss.NewStyle().Reverse(true)
	boardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// viewMsg carries a coordinator view into the program.
type viewMsg gamemaster.View

type errMsg struct{ err error }

// Views is the Display side of the terminal UI. The coordinator pushes into
// it; the program pulls the latest view out.
type Views struct {
	ch chan gamemaster.View
}

func NewViews() *Views {
	return &Views{ch: make(chan gamemaster.View, 1)}
}

var _ display.Display = (*Views)(nil)

// Update keeps only the newest view when the program falls behind.
func (v *Views) Update(view gamemaster.View) {
	for {
		select {
		case v.ch <- view:
			return
		default:
		}
		select {
		case <-v.ch:
		default:
		}
	}
}

func (v *Views) next() tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-v.ch)
	}
}

type Model struct {
	controller display.Controller
	views      *Views
	assignment player.Assignment

	boardSize float64
	view      gamemaster.View
	hasView   bool
	col, row  int
	err       error
}

func NewModel(controller display.Controller, views *Views, assignment player.Assignment) Model {
	return Model{
		controller: controller,
		views:      views,
		assignment: assignment,
		boardSize:  meta.BoardSize,
		col:        4,
		row:        4,
	}
}

// WithBoardSize sets the side of the square board clicks are reported in.
func (m Model) WithBoardSize(size float64) Model {
	if size > 0 {
		m.boardSize = size
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.views.next()
}

func (m Model) do(f func() error) tea.Cmd {
	return func() tea.Msg {
		if err := f(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = gamemaster.View(msg)
		m.hasView = true
		return m, m.views.next()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.row = max(0, m.row-1)
		case "down", "j":
			m.row = min(8, m.row+1)
		case "left", "h":
			m.col = max(0, m.col-1)
		case "right", "l":
			m.col = min(8, m.col+1)
		case "enter", " ":
			size := m.boardSize
			x, y := (float64(m.col)+0.5)*size/9, (float64(m.row)+0.5)*size/9
			return m, m.do(func() error { return m.controller.Click(x, y, size) })
		case "t":
			return m, m.do(m.controller.Toggle)
		case "n":
			assignment := m.assignment
			return m, m.do(func() error { return m.controller.NewGame(assignment) })
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.hasView {
		return statusStyle.Render("starting...") + "\n"
	}
	v := m.view

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Ultimate tic-tac-toe") + "  " + statusStyle.Render(v.Assignment.String()) + "\n")
	sb.WriteString(boardStyle.Render(m.grid()) + "\n")
	sb.WriteString(m.status() + "\n")
	if m.err != nil {
		sb.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	sb.WriteString(footerStyle.Render("arrows move · enter play · t pause/resume · n new game · q quit"))
	return sb.String()
}

func (m Model) grid() string {
	v := m.view
	var suggested = -1
	if v.Suggestion != nil {
		suggested = v.Suggestion.Row*9 + v.Suggestion.Col
	}

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
			glyph := m.glyph(outer, inner, row*9+col == suggested)
			if col == m.col && row == m.row {
				glyph = cursorStyle.Render(glyph)
			}
			sb.WriteString(glyph)
			if col < 8 {
				sb.WriteByte(' ')
			}
		}
		if row < 8 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) glyph(outer, inner int, suggested bool) string {
	v := m.view
	switch mark := v.Cells[outer][inner]; {
	case mark == "X":
		return xStyle.Render("X")
	case mark == "O":
		return oStyle.Render("O")
	case v.SubWinners[outer] != "":
		return emptyStyle.Render(strings.ToLower(v.SubWinners[outer]))
	case suggested:
		return suggestionStyle.Render("*")
	case !v.GameOver && (v.Active < 0 || v.Active == outer):
		return activeStyle.Render("·")
	default:
		return emptyStyle.Render(".")
	}
}

func (m Model) status() string {
	v := m.view
	var parts []string
	switch {
	case v.Diverged:
		parts = append(parts, errorStyle.Render("boards diverged, press n"))
	case v.GameOver && v.Winner != "":
		parts = append(parts, fmt.Sprintf("%s wins", v.Winner))
	case v.GameOver:
		parts = append(parts, "draw")
	default:
		parts = append(parts, fmt.Sprintf("%s to move", v.Player))
	}

	if v.Searching {
		parts = append(parts, "searching")
	} else {
		parts = append(parts, "paused")
	}
	if s := v.Suggestion; s != nil {
		parts = append(parts, fmt.Sprintf("best %s %.0f%% of %d", s.Action, 100*s.WinRate, s.Sims))
	}
	parts = append(parts, fmt.Sprintf("%d sims, %.0f/s", v.Stats.TotalSims, v.Stats.SimRate))
	return statusStyle.Render(strings.Join(parts, " · "))
}
