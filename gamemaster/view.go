package gamemaster

import (
	"uttt/game"
	"uttt/metrics"
	"uttt/player"
)

// View is a snapshot of everything a display shows. It shares no memory
// with the coordinator.
type View struct {
	Epoch      uint64            `json:"epoch"`
	Ply        int               `json:"ply"`
	Player     string            `json:"player"`
	GameOver   bool              `json:"game_over"`
	Winner     string            `json:"winner,omitempty"`
	Cells      [9][9]string      `json:"cells"` // [outer][inner], "" when empty
	SubWinners [9]string         `json:"sub_winners"`
	Active     int               `json:"active"` // -1 when any sub-board is open
	Last       string            `json:"last,omitempty"`
	Suggestion *Suggestion       `json:"suggestion,omitempty"`
	Metrics    metrics.Round     `json:"-"`
	Stats      ViewMetrics       `json:"metrics"`
	Assignment player.Assignment `json:"assignment"`
	Searching  bool              `json:"searching"`
	Diverged   bool              `json:"diverged,omitempty"`
}

type Suggestion struct {
	Action  string  `json:"action"`
	Col     int     `json:"col"`
	Row     int     `json:"row"`
	Sims    int     `json:"sims"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// ViewMetrics is metrics.Round in display units.
type ViewMetrics struct {
	SimTimeMs     float64 `json:"sim_time_ms"`
	TotalSims     int     `json:"total_sims"`
	RoundSimCount int     `json:"round_sims"`
	SimRate       float64 `json:"sim_rate"`
}

func mark(p game.Player, ok bool) string {
	if !ok {
		return ""
	}
	return p.String()
}

// View renders the coordinator's current state.
func (c *Coordinator) View() View {
	v := View{
		Epoch:      c.epoch,
		Ply:        c.ply,
		Player:     c.board.CurrentPlayer().String(),
		GameOver:   c.board.IsGameOver(),
		Active:     -1,
		Metrics:    c.metrics,
		Assignment: c.assignment,
		Searching:  c.searching,
		Diverged:   c.diverged,
		Stats: ViewMetrics{
			SimTimeMs:     float64(c.metrics.SimTime.Microseconds()) / 1000,
			TotalSims:     c.metrics.TotalSims,
			RoundSimCount: c.metrics.RoundSimCount,
			SimRate:       c.metrics.SimRate,
		},
	}
	if c.hasLast {
		v.Last = c.last.String()
	}
	if s, ok := c.Suggestion(); ok {
		col, row := s.Action.Coords()
		v.Suggestion = &Suggestion{
			Action:  s.Action.String(),
			Col:     col,
			Row:     row,
			Sims:    s.Sims,
			Wins:    s.Wins,
			WinRate: s.WinRate(),
		}
	}

	cells, ok := c.board.(cellReader)
	if !ok {
		return v
	}
	for outer := 0; outer < 9; outer++ {
		for inner := 0; inner < 9; inner++ {
			v.Cells[outer][inner] = mark(cells.Cell(outer, inner))
		}
		v.SubWinners[outer] = mark(cells.SubWinner(outer))
	}
	if active, ok := cells.Active(); ok {
		v.Active = active
	}
	v.Winner = mark(cells.Winner())
	return v
}
