// Package metrics defines the fire-and-forget sink the trainer emits scalar
// metrics to, with in-memory, fan-out and Prometheus implementations.
package metrics

import "sync"

// Sink receives (name, value) emissions. Implementations must not block and
// must not panic; failures are theirs to log.
type Sink interface {
	LogMetric(name string, value float64)
}

// Noop drops every emission.
type Noop struct{}

func (Noop) LogMetric(string, float64) {}

// Point is one recorded emission.
type Point struct {
	Name  string
	Value float64
}

// Memory stores emissions in order, for tests.
type Memory struct {
	mu     sync.Mutex
	points []Point
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LogMetric(name string, value float64) {
	m.mu.Lock()
	m.points = append(m.points, Point{Name: name, Value: value})
	m.mu.Unlock()
}

// Points returns a copy of every emission so far.
func (m *Memory) Points() []Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Point, len(m.points))
	copy(out, m.points)
	return out
}

// Values returns the emitted values for name, in order.
func (m *Memory) Values(name string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, p := range m.points {
		if p.Name == name {
			out = append(out, p.Value)
		}
	}
	return out
}

// Multi fans every emission out to each sink in order.
type Multi []Sink

func (ms Multi) LogMetric(name string, value float64) {
	for _, s := range ms {
		if s != nil {
			s.LogMetric(name, value)
		}
	}
}
