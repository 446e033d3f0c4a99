package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"trainloop/internal/common/fsutil"
)

// Artifact names inside an output directory.
const (
	SavedModelName = "best_model.pt"
	StatsFileName  = "stats.yaml"
)

// Loader restores model parameters from a snapshot.
type Loader interface {
	LoadState(r io.Reader) error
}

// Saver writes the model's current parameters as a snapshot.
type Saver interface {
	SaveState(w io.Writer) error
}

// Manager reads and writes the checkpoint of a single output directory.
// It is the only writer of that directory; no file locking is done.
type Manager struct {
	dir string
	log zerolog.Logger
}

// New returns a Manager for dir. A leading '~' is expanded lazily by Initialize.
func New(dir string, log zerolog.Logger) *Manager {
	return &Manager{dir: dir, log: log}
}

// Dir returns the output directory this manager writes to.
func (m *Manager) Dir() string { return m.dir }

func (m *Manager) modelPath() string { return filepath.Join(m.dir, SavedModelName) }
func (m *Manager) statsPath() string { return filepath.Join(m.dir, StatsFileName) }

// Initialize inspects the output directory and returns the state to resume
// from, or nil when training starts fresh.
//
// With forceFresh set, an existing saved model is left untouched and ignored.
// Otherwise a saved model is loaded into model together with its stats record.
// An existing directory without a saved model is kept as is; a missing one is
// created.
func (m *Manager) Initialize(model Loader, forceFresh bool) (*State, error) {
	dir, err := fsutil.ExpandHome(m.dir)
	if err != nil {
		return nil, &ioError{op: "resolve output dir", err: err}
	}
	m.dir = dir
	if fsutil.PathExists(m.dir) && !fsutil.IsDir(m.dir) {
		return nil, &ioError{op: "output dir", err: fmt.Errorf("%s exists and is not a directory", m.dir)}
	}

	saved := m.modelPath()
	hasModel := fsutil.PathExists(saved)
	if forceFresh && hasModel {
		m.log.Info().Str("path", saved).Msg("saved model already exists but NOT loading it (start from scratch)")
		return nil, nil
	}
	if hasModel {
		m.log.Info().Str("path", saved).Msg("saved model already exists, loading it")
		if err := m.loadModel(model); err != nil {
			return nil, err
		}
		st, err := m.LoadStats()
		if err != nil {
			return nil, err
		}
		m.log.Info().Float64("best_dev_metric", st.BestDevMetric).Int("epoch", st.Epoch).Msg("model status")
		return &st, nil
	}
	if fsutil.IsDir(m.dir) {
		m.log.Info().Str("dir", m.dir).Msg("saved model not found but output dir exists already, keeping it")
		return nil, nil
	}
	m.log.Info().Str("dir", m.dir).Msg("no saved model nor output dir found, creating it")
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, &ioError{op: "create output dir", err: err}
	}
	return nil, nil
}

func (m *Manager) loadModel(model Loader) error {
	f, err := os.Open(m.modelPath())
	if err != nil {
		return &loadError{path: m.modelPath(), err: err}
	}
	defer f.Close()
	if err := model.LoadState(f); err != nil {
		return &loadError{path: m.modelPath(), err: err}
	}
	return nil
}

// LoadStats reads the stats record. A missing or malformed record is reported
// as a missing state since it can only be read back alongside a saved model.
func (m *Manager) LoadStats() (State, error) {
	st, err := readState(m.statsPath())
	if err != nil {
		return State{}, &stateMissingError{path: m.statsPath(), err: err}
	}
	return st, nil
}

// WriteState replaces the stats record with {best, epoch}.
func (m *Manager) WriteState(best float64, epoch int) error {
	if epoch < 0 {
		return fmt.Errorf("write stats: negative epoch %d", epoch)
	}
	err := fsutil.WriteFileAtomic(m.statsPath(), 0o644, func(w io.Writer) error {
		return encodeState(w, State{BestDevMetric: best, Epoch: epoch})
	})
	if err != nil {
		return &ioError{op: "write stats", err: err}
	}
	return nil
}

// SaveModel overwrites the saved model with the current parameters of model.
func (m *Manager) SaveModel(model Saver) error {
	if model == nil {
		return errors.New("save model: nil model")
	}
	err := fsutil.WriteFileAtomic(m.modelPath(), 0o644, model.SaveState)
	if err != nil {
		return &ioError{op: "save model", err: err}
	}
	return nil
}
