package searcher

import (
	"sync"

	"uttt/game"

	"golang.org/x/exp/rand"
)

type Option func(t *Tree)

func WithGoroutines(goroutines int) Option {
	return func(t *Tree) {
		if goroutines > 0 {
			t.goroutines = goroutines
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(t *Tree) {
		t.seed = seed
	}
}

func WithExploration(cSquared float64) Option {
	return func(t *Tree) {
		if cSquared > 0 {
			t.cSquared = cSquared
		}
	}
}

// Tree is a UCT search tree rooted at the current game position. It is not
// safe for concurrent use; playouts inside a search step fan out to
// goroutines that never touch the tree.
type Tree struct {
	goroutines int
	seed       uint64
	cSquared   float64
	rngs       []*rand.Rand
	state      *game.Board
	root       *node
	counters   counters
}

func NewTree(options ...Option) *Tree {
	t := &Tree{ // Default values
		goroutines: 1,
		cSquared:   CSquared,
	}
	for _, option := range options {
		option(t)
	}
	t.rngs = make([]*rand.Rand, t.goroutines)
	for i := range t.rngs {
		t.rngs[i] = rand.New(rand.NewSource(t.seed + uint64(i)))
	}
	t.Reset()
	return t
}

// Reset discards the tree and starts over from the opening position.
func (t *Tree) Reset() {
	t.state = game.NewBoard()
	t.root = newNode(nil, 0, t.state.CurrentPlayer().Other(), t.state)
}

func (t *Tree) CurrentPlayer() game.Player { return t.state.CurrentPlayer() }

func (t *Tree) IsGameOver() bool { return t.state.IsGameOver() }

func (t *Tree) IsLegal(action game.Action) bool { return t.state.IsLegal(action) }

func (t *Tree) Hash() game.StateHash { return t.state.Hash() }

func (t *Tree) Counts() Counts { return t.counters.load() }

// DoSearchStep runs one select-expand-simulate-backup iteration with sims
// random playouts from the expanded node.
func (t *Tree) DoSearchStep(sims int) {
	if sims <= 0 || t.state.IsGameOver() {
		return
	}
	t.counters.addStep()
	leaf, state := t.selectThenExpand()
	result := t.simulate(state, sims)
	leaf.backup(result)
}

func (t *Tree) selectThenExpand() (*node, *game.Board) {
	state := t.state.Clone()
	n := t.root
	for !n.expandable() && len(n.children) > 0 {
		n = n.pickChild(t.cSquared)
		state.DoActionMut(n.action)
	}
	if n.expandable() {
		n, _ = n.addChild(t.rngs[0], state)
	}
	return n, state
}

type outcome struct {
	sims  int
	draws int
	wins  [game.NumPlayers]int
}

func (o *outcome) add(other outcome) {
	o.sims += other.sims
	o.draws += other.draws
	for i := range o.wins {
		o.wins[i] += other.wins[i]
	}
}

func (t *Tree) simulate(state *game.Board, sims int) outcome {
	goroutines := min(t.goroutines, sims)
	results := make([]outcome, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		share := sims / goroutines
		if i < sims%goroutines {
			share++
		}
		wg.Add(1)
		go func(i, share int) {
			defer wg.Done()
			for j := 0; j < share; j++ {
				results[i].add(rollout(state.Clone(), t.rngs[i]))
				t.counters.addPlayout()
			}
		}(i, share)
	}
	wg.Wait()

	var total outcome
	for _, r := range results {
		total.add(r)
	}
	return total
}

func rollout(state *game.Board, rng *rand.Rand) outcome {
	// Random rollout policy till game over
	for !state.IsGameOver() {
		moves := state.LegalActions()
		state.DoActionMut(moves[rng.Intn(len(moves))])
	}
	result := outcome{sims: 1}
	if winner, ok := state.Winner(); ok {
		result.wins[winner] = 1
	} else {
		result.draws = 1
	}
	return result
}

// BestAction returns the root child with the best win rate for the player
// to move, or false before any child has been simulated.
func (t *Tree) BestAction() (game.SearchStats, bool) {
	var best *node
	bestRate := -1.0
	for _, child := range t.root.children {
		if child.visits == 0 {
			continue
		}
		if rate := child.rewards() / float64(child.visits); rate > bestRate {
			bestRate = rate
			best = child
		}
	}
	if best == nil {
		return game.SearchStats{}, false
	}
	return game.SearchStats{Action: best.action, Sims: best.visits, Wins: best.wins}, true
}

// DoAction advances the root by action, reusing the matching subtree when
// it has been expanded.
func (t *Tree) DoAction(action game.Action) {
	t.state.DoActionMut(action)
	if child := t.root.child(action); child != nil {
		child.parent = nil
		t.root = child
		t.counters.addReuse()
		return
	}
	t.root = newNode(nil, action, t.state.CurrentPlayer().Other(), t.state)
}
