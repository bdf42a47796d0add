package communication

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"uttt/game"
	"uttt/metrics"
	"uttt/options"
)

// wireMessage is the JSON envelope. Fields a kind does not use are omitted.
type wireMessage struct {
	Kind    Kind           `json:"kind"`
	Epoch   uint64         `json:"epoch"`
	Ply     int            `json:"ply"`
	Action  string         `json:"action,omitempty"`
	Hash    string         `json:"hash,omitempty"`
	Options *options.Patch `json:"options,omitempty"`
	Best    *wireStats     `json:"best,omitempty"`
	Metrics *wireRound     `json:"metrics,omitempty"`
}

type wireStats struct {
	Action string `json:"action"`
	Sims   int    `json:"sims"`
	Wins   int    `json:"wins"`
}

type wireRound struct {
	Round         int     `json:"round"`
	ElapsedMs     float64 `json:"elapsed_ms"`
	SimTimeMs     float64 `json:"sim_time_ms"`
	TotalSims     int     `json:"total_sims"`
	RoundSims     int     `json:"round_sims"`
	SimRate       float64 `json:"sim_rate"`
	StepsPerRound int     `json:"steps_per_round"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Encode renders msg as a single line of JSON.
func Encode(msg Message) ([]byte, error) {
	w := wireMessage{Kind: msg.Kind, Epoch: msg.Epoch, Ply: msg.Ply}
	switch msg.Kind {
	case KindSetOptions:
		patch := msg.Patch
		w.Options = &patch
	case KindDoAction:
		w.Action = msg.Action.String()
		if msg.Hash != 0 {
			w.Hash = fmt.Sprintf("%016x", uint64(msg.Hash))
		}
	case KindStats:
		w.Best = &wireStats{
			Action: msg.Stats.Action.String(),
			Sims:   msg.Stats.Sims,
			Wins:   msg.Stats.Wins,
		}
		r := msg.Round
		w.Metrics = &wireRound{
			Round:         r.Round,
			ElapsedMs:     millis(r.Elapsed),
			SimTimeMs:     millis(r.SimTime),
			TotalSims:     r.TotalSims,
			RoundSims:     r.RoundSimCount,
			SimRate:       r.SimRate,
			StepsPerRound: r.StepsPerRound,
		}
	}
	return json.Marshal(w)
}

// Decode parses one JSON envelope. A kind this package does not know comes
// back as KindUnknown with no payload so receivers can skip it.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	msg := Message{Kind: w.Kind, Epoch: w.Epoch, Ply: w.Ply}
	if !w.Kind.Known() {
		msg.Kind = KindUnknown
		return msg, nil
	}

	switch w.Kind {
	case KindSetOptions:
		if w.Options != nil {
			msg.Patch = *w.Options
		}
	case KindDoAction:
		action, err := game.ParseAction(w.Action)
		if err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", w.Kind, err)
		}
		msg.Action = action
		if w.Hash != "" {
			h, err := strconv.ParseUint(w.Hash, 16, 64)
			if err != nil {
				return Message{}, fmt.Errorf("decode %s hash: %w", w.Kind, err)
			}
			msg.Hash = game.StateHash(h)
		}
	case KindStats:
		if w.Best == nil {
			return Message{}, fmt.Errorf("decode %s: missing best", w.Kind)
		}
		action, err := game.ParseAction(w.Best.Action)
		if err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", w.Kind, err)
		}
		msg.Stats = game.SearchStats{Action: action, Sims: w.Best.Sims, Wins: w.Best.Wins}
		if r := w.Metrics; r != nil {
			msg.Round = metrics.Round{
				Round:         r.Round,
				Elapsed:       time.Duration(r.ElapsedMs * float64(time.Millisecond)),
				SimTime:       time.Duration(r.SimTimeMs * float64(time.Millisecond)),
				TotalSims:     r.TotalSims,
				RoundSimCount: r.RoundSims,
				SimRate:       r.SimRate,
				StepsPerRound: r.StepsPerRound,
			}
		}
	}
	return msg, nil
}
