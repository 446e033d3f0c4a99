// Package tuning reports the final objective of a run to an external
// hyperparameter search. The search always minimizes.
package tuning

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"trainloop/internal/common/fsutil"
)

// TypeObjective marks the value the search minimizes.
const TypeObjective = "objective"

// Objective is one result record.
type Objective struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Reporter accepts the result records of a finished run.
type Reporter interface {
	Report(results []Objective) error
}

// Noop discards results; used when no search is active.
type Noop struct{}

func (Noop) Report([]Objective) error { return nil }

// FileReporter writes results as a JSON array to Path, replacing any
// previous content.
type FileReporter struct {
	Path string
}

func (f FileReporter) Report(results []Objective) error {
	if f.Path == "" {
		return fmt.Errorf("results path is empty")
	}
	path, err := fsutil.ExpandHome(f.Path)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	})
}

// ReadFile decodes a results file written by FileReporter.
func ReadFile(path string) ([]Objective, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Objective
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return out, nil
}

// Memory stores reports in-memory for tests.
type Memory struct {
	mu      sync.Mutex
	reports [][]Objective
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Report(results []Objective) error {
	m.mu.Lock()
	m.reports = append(m.reports, append([]Objective(nil), results...))
	m.mu.Unlock()
	return nil
}

// Reports returns every report received so far.
func (m *Memory) Reports() [][]Objective {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Objective, len(m.reports))
	copy(out, m.reports)
	return out
}
