package searcher

import (
	"math"

	"uttt/game"
)

// node holds statistics from the perspective of the player who played the
// action leading to it.
type node struct {
	parent   *node
	action   game.Action
	player   game.Player
	untried  []game.Action
	children []*node
	wins     int
	draws    int
	visits   int
}

func newNode(parent *node, action game.Action, player game.Player, state *game.Board) *node {
	untried := make([]game.Action, len(state.LegalActions()))
	copy(untried, state.LegalActions())
	return &node{
		parent:  parent,
		action:  action,
		player:  player,
		untried: untried,
	}
}

func (n *node) rewards() float64 {
	return score(n.wins, n.draws)
}

func (n *node) expandable() bool {
	return len(n.untried) > 0
}

// pickChild returns the child with the maximal UCT value, preferring
// unvisited children.
func (n *node) pickChild(cSquared float64) *node {
	policy := newExplorer(cSquared, n.visits)

	var best *node
	maxRank := math.Inf(-1)
	for _, child := range n.children {
		if child.visits == 0 {
			return child
		}
		if rank := policy.rank(child.rewards(), child.visits); rank > maxRank {
			maxRank = rank
			best = child
		}
	}
	return best
}

func (n *node) addChild(rng interface{ Intn(int) int }, state *game.Board) (*node, game.Action) {
	i := rng.Intn(len(n.untried))
	action := n.untried[i]
	last := len(n.untried) - 1
	n.untried[i] = n.untried[last]
	n.untried = n.untried[:last]

	mover := state.CurrentPlayer()
	state.DoActionMut(action)
	child := newNode(n, action, mover, state)
	n.children = append(n.children, child)
	return child, action
}

func (n *node) child(action game.Action) *node {
	for _, c := range n.children {
		if c.action == action {
			return c
		}
	}
	return nil
}

func (n *node) backup(result outcome) {
	for node := n; node != nil; node = node.parent {
		node.visits += result.sims
		node.draws += result.draws
		node.wins += result.wins[node.player]
	}
}
