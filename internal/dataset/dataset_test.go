package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func drain(t *testing.T, s *Slice) []int {
	t.Helper()
	var sizes []int
	for {
		b, err := s.Next()
		if errors.Is(err, io.EOF) {
			return sizes
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		sizes = append(sizes, b.Size())
	}
}

func TestSliceBatchesAndReset(t *testing.T) {
	in := [][]float64{{1}, {2}, {3}, {4}, {5}}
	s, err := NewSlice(in, []float64{0, 1, 0, 1, 1}, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Len() != 3 || s.Examples() != 5 || s.Features() != 1 {
		t.Fatalf("len=%d examples=%d features=%d", s.Len(), s.Examples(), s.Features())
	}
	first := drain(t, s)
	if len(first) != 3 || first[2] != 1 {
		t.Fatalf("unexpected batch sizes %v", first)
	}
	if got := drain(t, s); len(got) != 0 {
		t.Fatalf("exhausted source yielded %v", got)
	}
	_ = s.Reset()
	if again := drain(t, s); len(again) != 3 {
		t.Fatalf("reset did not rewind: %v", again)
	}
}

func TestNewSliceValidates(t *testing.T) {
	if _, err := NewSlice([][]float64{{1}}, nil, 1); err == nil {
		t.Fatalf("expected length mismatch")
	}
	if _, err := NewSlice(nil, nil, 0); err == nil {
		t.Fatalf("expected batch size error")
	}
}

func TestReadCSVWithHeader(t *testing.T) {
	data := "x1,x2,label\n# comment\n0.5, 1.5, 1\n-1,2,0\n3,4,1\n"
	s, err := ReadCSV(strings.NewReader(data), 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.Examples() != 3 || s.Features() != 2 {
		t.Fatalf("examples=%d features=%d", s.Examples(), s.Features())
	}
	b, _ := s.Next()
	if b.Inputs[0][1] != 1.5 || b.Targets[0] != 1 || b.Targets[1] != 0 {
		t.Fatalf("unexpected first batch %+v", b)
	}
}

func TestReadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"bad value":  "1,2,1\n1,x,0\n",
		"one column": "1\n",
		"ragged":     "1,2,1\n1,0\n",
	}
	for name, data := range cases {
		if _, err := ReadCSV(strings.NewReader(data), 1); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(p, []byte("1,0\n2,1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadCSV(p, 8)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 1 || s.Examples() != 2 {
		t.Fatalf("len=%d examples=%d", s.Len(), s.Examples())
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 1); err == nil {
		t.Fatalf("expected missing file error")
	}
}
