package metrics

import "time"

// Round holds the scheduler's running totals after one round of search.
type Round struct {
	Round         int           // Rounds of search since the game started
	Elapsed       time.Duration // Wall-clock time of the last batch
	SimTime       time.Duration // Search time since the last committed action
	TotalSims     int
	RoundSimCount int
	SimRate       float64 // Simulations per second in the last batch
	StepsPerRound int     // Batch size for the next round
}

// Recorder receives every completed round.
type Recorder interface {
	Record(r Round) error
	Close() error
}

type dummyRecorder struct{}

func NewDummyRecorder() Recorder {
	return &dummyRecorder{}
}

func (r *dummyRecorder) Record(Round) error { return nil }
func (r *dummyRecorder) Close() error       { return nil }
