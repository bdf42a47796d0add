// Package scheduler runs search in the worker context. It drives a search
// engine in time-boxed batches, resizes the batches to hit a target round
// time, reports the best action found so far and, for marks it plays,
// commits that action once enough thinking time has accumulated.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"uttt/communication"
	"uttt/game"
	"uttt/metrics"
	"uttt/options"
)

var ErrNoInbox = errors.New("scheduler has no inbox")

// Engine is the search capability the scheduler drives. It holds the
// worker's board mirror.
type Engine interface {
	DoSearchStep(sims int)
	DoAction(action game.Action)
	Reset()
	IsGameOver() bool
	CurrentPlayer() game.Player
	BestAction() (game.SearchStats, bool)
}

// Engines that also implement these are checked against the coordinator's
// mirror on every remote action.
type legality interface {
	IsLegal(action game.Action) bool
}

type hasher interface {
	Hash() game.StateHash
}

type Option func(s *Scheduler)

func WithOptions(opts options.Options) Option {
	return func(s *Scheduler) {
		s.opts = opts
	}
}

// WithClock replaces time.Now for measuring batches.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *Scheduler) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithInbox(inbox communication.Receiver) Option {
	return func(s *Scheduler) {
		s.inbox = inbox
	}
}

type Scheduler struct {
	engine   Engine
	outbox   communication.Sender
	inbox    communication.Receiver
	opts     options.Options
	now      func() time.Time
	recorder metrics.Recorder
	logger   zerolog.Logger

	epoch         uint64
	ply           int
	diverged      bool
	stepsPerRound int
	metrics       metrics.Round
}

func New(engine Engine, outbox communication.Sender, opts ...Option) *Scheduler {
	s := &Scheduler{ // Default values
		engine:        engine,
		outbox:        outbox,
		opts:          options.Default(),
		now:           time.Now,
		recorder:      metrics.NewDummyRecorder(),
		logger:        zerolog.Nop(),
		stepsPerRound: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.StepsPerRound = s.stepsPerRound
	return s
}

func (s *Scheduler) Options() options.Options { return s.opts }

func (s *Scheduler) Metrics() metrics.Round { return s.metrics }

func (s *Scheduler) Epoch() uint64 { return s.epoch }

func (s *Scheduler) Ply() int { return s.ply }

// Diverged reports whether a remote action failed to replay on the
// worker's mirror. Search stays off until the next new_game.
func (s *Scheduler) Diverged() bool { return s.diverged }

func (s *Scheduler) searching() bool {
	return s.opts.SimulationEnabled && !s.diverged && !s.engine.IsGameOver()
}

// Round runs one scheduling cycle and returns how long to wait before the
// next one.
func (s *Scheduler) Round() time.Duration {
	if !s.searching() {
		return s.opts.TargetRoundTime
	}

	steps := s.stepsPerRound
	start := s.now()
	for i := 0; i < steps; i++ {
		s.engine.DoSearchStep(s.opts.SimulationsPerStep)
	}
	elapsed := s.now().Sub(start)

	s.report(steps, elapsed)
	if err := s.recorder.Record(s.metrics); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record round")
	}
	s.commit()
	return 0
}

func (s *Scheduler) report(steps int, elapsed time.Duration) {
	sims := steps * s.opts.SimulationsPerStep

	m := &s.metrics
	m.Round++
	m.Elapsed = elapsed
	m.SimTime += elapsed
	m.TotalSims += sims
	m.RoundSimCount = sims
	m.SimRate = 0

	// A zero reading says nothing about cost per step; keep the batch size
	if elapsed > 0 {
		m.SimRate = float64(sims) / elapsed.Seconds()
		s.stepsPerRound = max(1, int(int64(s.opts.TargetRoundTime)*int64(steps)/int64(elapsed)))
	}
	m.StepsPerRound = s.stepsPerRound

	s.logger.Debug().
		Int("round", m.Round).
		Int("steps", steps).
		Dur("elapsed", elapsed).
		Int("next_steps", s.stepsPerRound).
		Float64("sim_rate", m.SimRate).
		Msg("round complete")
}

func (s *Scheduler) commit() {
	stats, ok := s.engine.BestAction()
	if !ok {
		return
	}
	s.send(communication.Stats(s.epoch, s.ply, stats, s.metrics))

	mover := s.engine.CurrentPlayer()
	if s.metrics.SimTime < s.opts.ThinkingTime || !s.opts.Plays(mover) {
		return
	}

	s.engine.DoAction(stats.Action)
	s.metrics.SimTime = 0
	s.send(communication.DoAction(s.epoch, s.ply, stats.Action, s.hash()))
	s.ply++

	s.logger.Info().
		Stringer("player", mover).
		Stringer("action", stats.Action).
		Int("sims", stats.Sims).
		Float64("win_rate", stats.WinRate()).
		Msg("committed action")
}

func (s *Scheduler) hash() game.StateHash {
	if h, ok := s.engine.(hasher); ok {
		return h.Hash()
	}
	return 0
}

func (s *Scheduler) send(msg communication.Message) {
	if err := s.outbox.Send(msg); err != nil {
		s.logger.Warn().Err(err).Stringer("message", msg).Msg("failed to send")
	}
}

// Handle applies one message from the coordinator.
func (s *Scheduler) Handle(msg communication.Message) {
	switch msg.Kind {
	case communication.KindNewGame:
		s.engine.Reset()
		s.epoch = msg.Epoch
		s.ply = 0
		s.diverged = false
		s.stepsPerRound = 1
		s.metrics = metrics.Round{StepsPerRound: 1}
		s.logger.Debug().Uint64("epoch", msg.Epoch).Msg("new game")

	case communication.KindSetOptions:
		s.opts = s.opts.Merge(msg.Patch)
		s.logger.Debug().
			Bool("enabled", s.opts.SimulationEnabled).
			Bool("plays_x", s.opts.PlayingFor[game.X]).
			Bool("plays_o", s.opts.PlayingFor[game.O]).
			Msg("options updated")

	case communication.KindDoAction:
		s.applyRemote(msg)

	default:
		s.logger.Debug().Str("kind", string(msg.Kind)).Msg("ignoring message")
	}
}

func (s *Scheduler) applyRemote(msg communication.Message) {
	if msg.Epoch != s.epoch {
		s.logger.Debug().Uint64("epoch", msg.Epoch).Uint64("current", s.epoch).Msg("dropping stale action")
		return
	}
	if s.diverged {
		return
	}
	if msg.Ply != s.ply || s.engine.IsGameOver() {
		s.diverge(msg, "ply mismatch")
		return
	}
	if l, ok := s.engine.(legality); ok && !l.IsLegal(msg.Action) {
		s.diverge(msg, "illegal action")
		return
	}

	s.engine.DoAction(msg.Action)
	s.ply++
	s.metrics.SimTime = 0

	if msg.Hash != 0 {
		if h := s.hash(); h != 0 && h != msg.Hash {
			s.diverge(msg, "hash mismatch")
		}
	}
}

func (s *Scheduler) diverge(msg communication.Message, reason string) {
	s.diverged = true
	s.logger.Error().
		Str("reason", reason).
		Stringer("message", msg).
		Int("ply", s.ply).
		Msg("board mirror diverged; search stopped until the next game")
}

// Drain handles every message waiting in the inbox.
func (s *Scheduler) Drain() int {
	if s.inbox == nil {
		return 0
	}
	return s.inbox.Drain(s.Handle)
}

// Run loops until ctx is done or the inbox is closed. Messages are handled
// between rounds, never during a batch.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.inbox == nil {
		return ErrNoInbox
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-s.inbox.Wait():
			s.Drain()
			if !ok {
				return nil
			}
		case <-timer.C:
			s.Drain()
			timer.Reset(s.Round())
		}
	}
}
