package game

import "errors"

var ErrInvalidAction = errors.New("invalid action")

// StateHash is a digest of a board position. Two boards that replayed the
// same actions in the same order have the same hash.
type StateHash uint64

// SearchStats describes the currently best action found by a search engine.
type SearchStats struct {
	Action Action
	Sims   int
	Wins   int
}

// WinRate is Wins/Sims, or 0 before any simulation.
func (s SearchStats) WinRate() float64 {
	if s.Sims == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Sims)
}
