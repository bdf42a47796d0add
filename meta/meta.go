// meta/meta.go
package meta

import "time"

// TargetRoundTime is the default wall-clock length of one search round.
const TargetRoundTime = 100 * time.Millisecond

// SimulationsPerStep is the default number of playouts per search step.
const SimulationsPerStep = 100

// ThinkingTime is the default search time before the AI commits a move.
const ThinkingTime = 2 * time.Second

// GO_ROUTINES defines the number of goroutines used for playouts.
const GO_ROUTINES = 4

// BoardSize is the side of the square board clicks are resolved against.
const BoardSize = 900.0

// Addr is where `serve` listens by default.
const Addr = ":8080"
