package searcher

import "sync/atomic"

// Counts are the tree's running totals since it was built.
type Counts struct {
	Steps    int64
	Playouts int64
	Reuses   int64 // Committed actions that kept an expanded subtree
}

// counters is written from playout goroutines, so every field is atomic.
type counters struct {
	steps    atomic.Int64
	playouts atomic.Int64
	reuses   atomic.Int64
}

func (c *counters) addStep()    { c.steps.Add(1) }
func (c *counters) addPlayout() { c.playouts.Add(1) }
func (c *counters) addReuse()   { c.reuses.Add(1) }

func (c *counters) load() Counts {
	return Counts{
		Steps:    c.steps.Load(),
		Playouts: c.playouts.Load(),
		Reuses:   c.reuses.Load(),
	}
}
