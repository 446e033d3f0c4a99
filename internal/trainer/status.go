package trainer

import (
	"trainloop/pkg/types"
)

// Phase is the lifecycle phase of a Driver.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseTraining     Phase = "training"
	PhaseEvaluating   Phase = "evaluating"
	PhaseStopped      Phase = "stopped"
	PhaseFailed       Phase = "failed"
)

type status struct {
	phase      Phase
	epoch      int
	startEpoch int
	maxEpoch   int
	patience   int
	streak     int
	best       float64
	haveBest   bool
	last       *EpochResult
	stopReason StopReason
	err        string
}

func (d *Driver) setResumed(start int, best float64, haveBest bool) {
	d.mu.Lock()
	d.status.startEpoch = start
	d.status.epoch = start
	d.status.best = best
	d.status.haveBest = haveBest
	d.mu.Unlock()
}

func (d *Driver) setPhase(p Phase, epoch int) {
	d.mu.Lock()
	d.status.phase = p
	d.status.epoch = epoch
	d.mu.Unlock()
}

func (d *Driver) setEpochDone(er EpochResult, best float64, streak int) {
	d.mu.Lock()
	d.status.last = &er
	d.status.best = best
	d.status.haveBest = true
	d.status.streak = streak
	d.mu.Unlock()
}

func (d *Driver) setStopped(res Result) {
	d.mu.Lock()
	d.status.phase = PhaseStopped
	d.status.stopReason = res.StopReason
	d.status.best = res.BestDevMetric
	d.status.haveBest = true
	d.mu.Unlock()
}

func (d *Driver) setFailed(err error) {
	d.mu.Lock()
	d.status.phase = PhaseFailed
	d.status.err = err.Error()
	d.mu.Unlock()
}

// Ready reports whether the driver has not failed.
func (d *Driver) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status.phase != PhaseFailed
}

// Status builds a status response for /status. Safe to call while Run is in progress.
func (d *Driver) Status() types.StatusResponse {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.status
	resp := types.StatusResponse{
		State:        string(s.phase),
		Output:       d.cfg.Output,
		Epoch:        s.epoch,
		StartEpoch:   s.startEpoch,
		MaxEpoch:     s.maxEpoch,
		Patience:     s.patience,
		PatienceLeft: s.patience - s.streak,
		StopReason:   string(s.stopReason),
		Error:        s.err,
	}
	if s.haveBest {
		best := s.best
		resp.BestDevMetric = &best
	}
	if s.last != nil {
		resp.LastEpoch = &types.EpochStatus{
			Epoch:        s.last.Epoch,
			Loss:         s.last.AvgLoss,
			DevMetric:    s.last.DevMetric,
			Improved:     s.last.Improved,
			TrainSeconds: s.last.TrainDuration.Seconds(),
			DevSeconds:   s.last.DevDuration.Seconds(),
		}
	}
	return resp
}
