package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// State is the persisted training record. Epoch is the first epoch that has
// not run yet.
type State struct {
	BestDevMetric float64 `yaml:"best_dev_metric"`
	Epoch         int     `yaml:"epoch"`
}

// stateFile uses pointers so a missing key is distinguishable from a zero value.
type stateFile struct {
	BestDevMetric *float64 `yaml:"best_dev_metric"`
	Epoch         *int     `yaml:"epoch"`
}

func encodeState(w io.Writer, s State) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return enc.Close()
}

func readState(path string) (State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var f stateFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return State{}, fmt.Errorf("decode stats: %w", err)
	}
	if f.BestDevMetric == nil || f.Epoch == nil {
		return State{}, errors.New("stats record must hold best_dev_metric and epoch")
	}
	if *f.Epoch < 0 {
		return State{}, fmt.Errorf("negative epoch %d", *f.Epoch)
	}
	return State{BestDevMetric: *f.BestDevMetric, Epoch: *f.Epoch}, nil
}
