// Package tracking is a local experiment tracking store. Runs and their metric
// series are kept in SQLite so they can be compared across invocations that
// share an output directory.
package tracking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Run is one invocation of the trainer.
type Run struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	Output     string `gorm:"index"`
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Metric is one emitted value. Step counts emissions of Name within the run.
type Metric struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Name      string `gorm:"index"`
	Step      int
	Value     float64
	CreatedAt time.Time
}

// Store persists runs and metrics.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open tracking db: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &Metric{}); err != nil {
		return nil, fmt.Errorf("migrate tracking db: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun records a new running run and returns a sink bound to it.
func (s *Store) StartRun(name, output string) (*RunSink, error) {
	r := Run{
		ID:        uuid.NewString(),
		Name:      name,
		Output:    output,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &RunSink{store: s, runID: r.ID, steps: map[string]int{}}, nil
}

// FinishRun marks a run finished or failed.
func (s *Store) FinishRun(runID, status string) error {
	now := time.Now().UTC()
	res := s.db.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{"status": status, "finished_at": now})
	if res.Error != nil {
		return fmt.Errorf("finish run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(runID string) (Run, error) {
	var r Run
	err := s.db.First(&r, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, fmt.Errorf("unknown run %s", runID)
	}
	return r, err
}

// Runs lists runs recorded for an output directory, oldest first.
func (s *Store) Runs(output string) ([]Run, error) {
	var runs []Run
	err := s.db.Where("output = ?", output).Order("started_at asc").Find(&runs).Error
	return runs, err
}

// Metrics returns the series of name for a run in step order. An empty name
// returns every metric of the run.
func (s *Store) Metrics(runID, name string) ([]Metric, error) {
	q := s.db.Where("run_id = ?", runID)
	if name != "" {
		q = q.Where("name = ?", name)
	}
	var out []Metric
	err := q.Order("id asc").Find(&out).Error
	return out, err
}

// RunSink writes emissions of one run to the store. It implements
// metrics.Sink; write failures are logged, not returned.
type RunSink struct {
	store *Store
	runID string

	mu    sync.Mutex
	steps map[string]int
}

// RunID returns the id of the bound run.
func (r *RunSink) RunID() string { return r.runID }

func (r *RunSink) LogMetric(name string, value float64) {
	r.mu.Lock()
	step := r.steps[name]
	r.steps[name] = step + 1
	r.mu.Unlock()
	m := Metric{RunID: r.runID, Name: name, Step: step, Value: value}
	if err := r.store.db.Create(&m).Error; err != nil {
		r.store.log.Warn().Err(err).Str("metric", name).Msg("tracking: dropping metric")
	}
}

// Finish marks the bound run finished, or failed when runErr is non-nil.
func (r *RunSink) Finish(runErr error) error {
	status := StatusFinished
	if runErr != nil {
		status = StatusFailed
	}
	return r.store.FinishRun(r.runID, status)
}
