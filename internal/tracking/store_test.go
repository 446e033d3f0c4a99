package tracking

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracking.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	sink, err := s.StartRun("exp", "/runs/a")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sink.RunID() == "" {
		t.Fatalf("empty run id")
	}
	sink.LogMetric("dev_metric", 0.5)
	sink.LogMetric("loss", 0.9)
	sink.LogMetric("dev_metric", 0.6)

	series, err := s.Metrics(sink.RunID(), "dev_metric")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if len(series) != 2 || series[0].Step != 0 || series[1].Step != 1 || series[1].Value != 0.6 {
		t.Fatalf("unexpected series %+v", series)
	}
	all, _ := s.Metrics(sink.RunID(), "")
	if len(all) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(all))
	}

	run, err := s.GetRun(sink.RunID())
	if err != nil || run.Status != StatusRunning || run.FinishedAt != nil {
		t.Fatalf("unexpected run %+v err=%v", run, err)
	}
	if err := sink.Finish(nil); err != nil {
		t.Fatalf("finish: %v", err)
	}
	run, _ = s.GetRun(sink.RunID())
	if run.Status != StatusFinished || run.FinishedAt == nil {
		t.Fatalf("run not finished: %+v", run)
	}
}

func TestFailedRunAndListing(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.StartRun("a", "/runs/x")
	b, _ := s.StartRun("b", "/runs/x")
	_, _ = s.StartRun("c", "/runs/other")
	if err := b.Finish(errors.New("boom")); err != nil {
		t.Fatalf("finish: %v", err)
	}
	runs, err := s.Runs("/runs/x")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	if byID[a.RunID()].Status != StatusRunning || byID[b.RunID()].Status != StatusFailed {
		t.Fatalf("unexpected statuses %+v", runs)
	}
}

func TestUnknownRun(t *testing.T) {
	s := openTestStore(t)
	if err := s.FinishRun("nope", StatusFinished); err == nil {
		t.Fatalf("expected unknown run error")
	}
	if _, err := s.GetRun("nope"); err == nil {
		t.Fatalf("expected unknown run error")
	}
}
