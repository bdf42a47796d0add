package display

import (
	"github.com/rs/zerolog"

	"uttt/gamemaster"
)

// LogDisplay writes moves, suggestions and results to a logger. It is the
// display for headless self-play.
type LogDisplay struct {
	logger zerolog.Logger
	epoch  uint64
	ply    int
	over   bool
	best   string
}

func NewLogDisplay(logger zerolog.Logger) *LogDisplay {
	return &LogDisplay{logger: logger, ply: -1}
}

func (d *LogDisplay) Update(view gamemaster.View) {
	if view.Epoch != d.epoch {
		d.epoch, d.ply, d.over, d.best = view.Epoch, -1, false, ""
		d.logger.Info().Uint64("epoch", view.Epoch).Stringer("assignment", view.Assignment).Msg("game started")
	}

	if view.Ply != d.ply {
		d.ply = view.Ply
		d.best = ""
		if view.Last != "" {
			d.logger.Info().
				Int("ply", view.Ply).
				Str("action", view.Last).
				Str("next", view.Player).
				Msg("move")
		}
	}

	if s := view.Suggestion; s != nil && s.Action != d.best {
		d.best = s.Action
		d.logger.Debug().
			Str("player", view.Player).
			Str("action", s.Action).
			Int("sims", s.Sims).
			Float64("win_rate", s.WinRate).
			Float64("sim_rate", view.Stats.SimRate).
			Msg("suggestion")
	}

	if view.Diverged {
		d.logger.Error().Int("ply", view.Ply).Msg("boards diverged; start a new game")
	}

	if view.GameOver && !d.over {
		d.over = true
		event := d.logger.Info().Int("plies", view.Ply).Int("total_sims", view.Stats.TotalSims)
		if view.Winner != "" {
			event = event.Str("winner", view.Winner)
		} else {
			event = event.Bool("draw", true)
		}
		event.Msg("game over")
		d.logger.Info().Msg("\n" + Render(view))
	}
}
