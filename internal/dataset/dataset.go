// Package dataset provides in-memory batch sources for the trainer, loaded
// from CSV files whose last column is the binary label.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"trainloop/internal/common/fsutil"
	"trainloop/internal/trainer"
)

// Slice serves fixed examples in order, batchSize at a time. It is
// restartable via Reset.
type Slice struct {
	inputs    [][]float64
	targets   []float64
	batchSize int
	pos       int
}

// NewSlice returns a source over inputs/targets. batchSize must be positive.
func NewSlice(inputs [][]float64, targets []float64, batchSize int) (*Slice, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("got %d inputs for %d targets", len(inputs), len(targets))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Slice{inputs: inputs, targets: targets, batchSize: batchSize}, nil
}

// Len returns the number of batches per pass.
func (s *Slice) Len() int { return (len(s.targets) + s.batchSize - 1) / s.batchSize }

// Examples returns the number of examples per pass.
func (s *Slice) Examples() int { return len(s.targets) }

// Features returns the width of the first example, or 0 when empty.
func (s *Slice) Features() int {
	if len(s.inputs) == 0 {
		return 0
	}
	return len(s.inputs[0])
}

func (s *Slice) Reset() error {
	s.pos = 0
	return nil
}

func (s *Slice) Next() (trainer.Batch, error) {
	if s.pos >= len(s.targets) {
		return trainer.Batch{}, io.EOF
	}
	end := s.pos + s.batchSize
	if end > len(s.targets) {
		end = len(s.targets)
	}
	b := trainer.Batch{Inputs: s.inputs[s.pos:end], Targets: s.targets[s.pos:end]}
	s.pos = end
	return b, nil
}

// LoadCSV reads path into a Slice. A first row that does not parse as
// numbers is treated as a header. Every row must have the same width.
func LoadCSV(path string, batchSize int) (*Slice, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, batchSize)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, batchSize int) (*Slice, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	var inputs [][]float64
	var targets []float64
	width := -1
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("csv line %d: need at least one feature and a label", line)
		}
		row, err := parseRow(rec)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if width < 0 {
			width = len(row)
		} else if len(row) != width {
			return nil, fmt.Errorf("csv line %d: %d columns, expected %d", line, len(row), width)
		}
		inputs = append(inputs, row[:len(row)-1])
		targets = append(targets, row[len(row)-1])
	}
	return NewSlice(inputs, targets, batchSize)
}

func parseRow(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for i, v := range rec {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, err
		}
		row[i] = f
	}
	return row, nil
}
