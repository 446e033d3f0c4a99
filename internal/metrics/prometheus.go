package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exposes the latest value of each metric as a gauge and counts
// emissions per metric name.
type Prometheus struct {
	values    *prometheus.GaugeVec
	emissions *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg. A nil reg
// registers on the default registerer. Collectors already registered by an
// earlier call are reused.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		values: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "trainloop",
				Subsystem: "run",
				Name:      "metric",
				Help:      "Latest value of each training metric",
			},
			[]string{"name"},
		),
		emissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trainloop",
				Subsystem: "run",
				Name:      "metric_emissions_total",
				Help:      "Total number of emissions per training metric",
			},
			[]string{"name"},
		),
	}
	values, err := register(reg, p.values)
	if err != nil {
		return nil, err
	}
	emissions, err := register(reg, p.emissions)
	if err != nil {
		return nil, err
	}
	p.values, p.emissions = values, emissions
	return p, nil
}

func (p *Prometheus) LogMetric(name string, value float64) {
	p.values.WithLabelValues(name).Set(value)
	p.emissions.WithLabelValues(name).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
