package types

// StatusResponse is the JSON payload of GET /status.
type StatusResponse struct {
	State         string       `json:"state"`
	Output        string       `json:"output"`
	Epoch         int          `json:"epoch"`
	StartEpoch    int          `json:"start_epoch"`
	MaxEpoch      int          `json:"max_epoch"`
	Patience      int          `json:"patience"`
	PatienceLeft  int          `json:"patience_left"`
	BestDevMetric *float64     `json:"best_dev_metric,omitempty"`
	LastEpoch     *EpochStatus `json:"last_epoch,omitempty"`
	StopReason    string       `json:"stop_reason,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// EpochStatus summarizes the most recently completed epoch.
type EpochStatus struct {
	Epoch        int     `json:"epoch"`
	Loss         float64 `json:"loss"`
	DevMetric    float64 `json:"dev_metric"`
	Improved     bool    `json:"improved"`
	TrainSeconds float64 `json:"train_seconds"`
	DevSeconds   float64 `json:"dev_seconds"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
