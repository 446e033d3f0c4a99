package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "output: /tmp/run\npatience: 3\nmax_epoch: 20\nprogress_bar: false\ntrain_csv: a.csv\ndev_csv: b.csv\nlearning_rate: 0.05\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output != "/tmp/run" || cfg.Patience != 3 || cfg.MaxEpoch != 20 || cfg.TrainCSV != "a.csv" || cfg.DevCSV != "b.csv" || cfg.LearningRate != 0.05 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.UseProgressBar() {
		t.Fatalf("progress_bar: false not honored")
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"output":"/o","patience":2,"max_epoch":4,"start_from_scratch":true,"batch_size":16}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output != "/o" || cfg.Patience != 2 || cfg.MaxEpoch != 4 || !cfg.StartFromScratch || cfg.BatchSize != 16 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.UseProgressBar() {
		t.Fatalf("progress bar should default on")
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "output=\"/x\"\npatience=9\nmax_epoch=1\ntuning=true\nresults_path=\"/r.json\"\nmetrics_addr=\":9100\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output != "/x" || cfg.Patience != 9 || cfg.MaxEpoch != 1 || !cfg.Tuning || cfg.ResultsPath != "/r.json" || cfg.MetricsAddr != ":9100" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	bad := writeTempFile(t, d, "bad.json", "{")
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeKeepsSetFields(t *testing.T) {
	cfg := Config{Output: "/mine", Patience: 2}.Merge(Defaults())
	if cfg.Output != "/mine" || cfg.Patience != 2 {
		t.Fatalf("set fields overridden: %+v", cfg)
	}
	def := Defaults()
	if cfg.MaxEpoch != def.MaxEpoch || cfg.BatchSize != def.BatchSize || cfg.LogLevel != def.LogLevel || !cfg.UseProgressBar() {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvOrionResultsPath: "/tmp/results.json"}
	cfg := Config{}.ApplyEnv(func(k string) string { return env[k] })
	if !cfg.Tuning || cfg.ResultsPath != "/tmp/results.json" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	cfg = Config{ResultsPath: "/explicit"}.ApplyEnv(func(k string) string { return env[k] })
	if cfg.ResultsPath != "/explicit" || !cfg.Tuning {
		t.Fatalf("explicit path overridden: %+v", cfg)
	}
	cfg = Config{}.ApplyEnv(func(string) string { return "" })
	if cfg.Tuning {
		t.Fatalf("tuning enabled without env")
	}
}

func TestValidate(t *testing.T) {
	good := Config{Output: "/o", TrainCSV: "a", DevCSV: "b"}.Merge(Defaults())
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := good
	bad.Patience = -1
	bad.Tuning = true
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "patience") || !strings.Contains(err.Error(), "results_path") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestCORSFieldsLoadAndMerge(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "cors_origins:\n  - http://dash.local\ncors_methods: [GET, OPTIONS]\n")
	file, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Config{}.Merge(file).Merge(Defaults())
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://dash.local" || len(cfg.CORSMethods) != 2 {
		t.Fatalf("unexpected cors fields: %+v", cfg)
	}
	flags := Config{CORSOrigins: []string{"http://other.local"}}.Merge(file)
	if flags.CORSOrigins[0] != "http://other.local" || len(flags.CORSMethods) != 2 {
		t.Fatalf("flag origins should win, methods come from file: %+v", flags)
	}
}
