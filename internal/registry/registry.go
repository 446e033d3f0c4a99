// Package registry discovers training output directories under a root.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"trainloop/internal/checkpoint"
	"trainloop/internal/common/fsutil"
)

// Entry is one output directory holding checkpoint stats.
type Entry struct {
	Dir      string
	State    checkpoint.State
	HasModel bool
}

// Scan walks the direct children of root (and root itself) and returns every
// directory with a readable stats.yaml, sorted by directory.
// Directories with malformed stats are skipped.
func Scan(root string) ([]Entry, error) {
	base, err := fsutil.ExpandHome(root)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	dirs := []string{abs}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(abs, e.Name()))
		}
	}
	var out []Entry
	for _, d := range dirs {
		if !fsutil.PathExists(filepath.Join(d, checkpoint.StatsFileName)) {
			continue
		}
		st, err := checkpoint.New(d, zerolog.Nop()).LoadStats()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Dir:      d,
			State:    st,
			HasModel: fsutil.PathExists(filepath.Join(d, checkpoint.SavedModelName)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

// Best returns the entry with the highest best dev metric, or false when
// entries is empty.
func Best(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.State.BestDevMetric > best.State.BestDevMetric {
			best = e
		}
	}
	return best, true
}
