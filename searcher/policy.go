package searcher

import "math"

// CSquared is the default c² of the exploration term.
const CSquared = 2.0

// A playout scores 1 for a win and half for a draw, so a node's average
// score stays in [0, 1] even in drawn games.
const (
	winScore  = 1.0
	drawScore = 0.5
)

func score(wins, draws int) float64 {
	return float64(wins)*winScore + float64(draws)*drawScore
}

// explorer ranks the children of one parent. ln N only depends on the
// parent, so it is taken once per selection.
type explorer struct {
	weight float64 // c² ln N
}

func newExplorer(cSquared float64, parentVisits int) explorer {
	if parentVisits == 0 {
		panic("selecting below an unvisited node")
	}
	return explorer{weight: cSquared * math.Log(float64(parentVisits))}
}

// rank is the average score plus sqrt(c² ln N / n).
func (e explorer) rank(total float64, visits int) float64 {
	if visits == 0 {
		panic("ranking an unvisited child")
	}
	n := float64(visits)
	return total/n + math.Sqrt(e.weight/n)
}
