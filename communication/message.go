package communication

import (
	"fmt"

	"uttt/game"
	"uttt/metrics"
	"uttt/options"
)

type Kind string

const (
	KindNewGame    Kind = "new_game"
	KindSetOptions Kind = "set_options"
	KindDoAction   Kind = "do_action"
	KindStats      Kind = "stats"

	// KindUnknown stands in for any kind a newer peer might send.
	KindUnknown Kind = "unknown"
)

// Known reports whether k is one of the protocol's message kinds.
func (k Kind) Known() bool {
	switch k {
	case KindNewGame, KindSetOptions, KindDoAction, KindStats:
		return true
	}
	return false
}

// Message is a tagged record; only the fields of its Kind are meaningful.
// It holds no references, so a sent message is never shared.
type Message struct {
	Kind Kind
	// Epoch is the game generation the sender was in.
	Epoch uint64
	// Ply is the number of actions the sender's board had applied before
	// this message was produced.
	Ply int

	// do_action
	Action game.Action
	Hash   game.StateHash // sender's position after Action, 0 if unknown

	// set_options
	Patch options.Patch

	// stats
	Stats game.SearchStats
	Round metrics.Round
}

func NewGame(epoch uint64) Message {
	return Message{Kind: KindNewGame, Epoch: epoch}
}

func SetOptions(epoch uint64, patch options.Patch) Message {
	return Message{Kind: KindSetOptions, Epoch: epoch, Patch: patch}
}

func DoAction(epoch uint64, ply int, action game.Action, hash game.StateHash) Message {
	return Message{Kind: KindDoAction, Epoch: epoch, Ply: ply, Action: action, Hash: hash}
}

func Stats(epoch uint64, ply int, stats game.SearchStats, round metrics.Round) Message {
	return Message{Kind: KindStats, Epoch: epoch, Ply: ply, Stats: stats, Round: round}
}

func (m Message) String() string {
	switch m.Kind {
	case KindDoAction:
		return fmt.Sprintf("%s{epoch=%d ply=%d action=%s}", m.Kind, m.Epoch, m.Ply, m.Action)
	case KindStats:
		return fmt.Sprintf("%s{epoch=%d ply=%d best=%s sims=%d}", m.Kind, m.Epoch, m.Ply, m.Stats.Action, m.Stats.Sims)
	default:
		return fmt.Sprintf("%s{epoch=%d}", m.Kind, m.Epoch)
	}
}
