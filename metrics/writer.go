package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer records rounds as rows of a CSV file.
type Writer struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

var roundHeader = []string{"round", "elapsed_ms", "sim_time_ms", "total_sims", "round_sims", "sim_rate", "steps_per_round"}

// NewWriter creates baseDir if needed and a rounds file named by the
// current timestamp inside it.
func NewWriter(baseDir, session string) (*Writer, error) {
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102T150405")
	path := filepath.Join(baseDir, fmt.Sprintf("rounds-%s-%s.csv", timestamp, session))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create rounds file: %w", err)
	}

	w := &Writer{path: path, file: f, writer: csv.NewWriter(f)}
	if err := w.writer.Write(roundHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write rounds header: %w", err)
	}
	return w, nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Record(r Round) error {
	row := []string{
		strconv.Itoa(r.Round),
		strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
		strconv.FormatInt(r.SimTime.Milliseconds(), 10),
		strconv.Itoa(r.TotalSims),
		strconv.Itoa(r.RoundSimCount),
		strconv.FormatFloat(r.SimRate, 'f', 1, 64),
		strconv.Itoa(r.StepsPerRound),
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write round row: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush rounds file: %w", err)
	}
	return w.file.Close()
}
