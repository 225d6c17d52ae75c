package systems

import (
	"fmt"
	"slices"
	"time"
)

// Manager runs registered systems in phase order, then by descending
// priority, then by registration order. It is driven from a single goroutine.
type Manager struct {
	systems []System
	metrics map[string]*Metrics
}

func NewManager() *Manager {
	return &Manager{metrics: make(map[string]*Metrics)}
}

// RegisterSystem adds s to the pipeline. Names must be unique.
func (m *Manager) RegisterSystem(s System) error {
	if s == nil {
		return ErrNilSystem
	}
	if m.HasSystem(s.Name()) {
		return fmt.Errorf("%w: %s", ErrSystemExists, s.Name())
	}
	m.systems = append(m.systems, s)
	slices.SortStableFunc(m.systems, func(a, b System) int {
		if a.ExecutionPhase() != b.ExecutionPhase() {
			return int(a.ExecutionPhase()) - int(b.ExecutionPhase())
		}
		return int(b.Priority()) - int(a.Priority())
	})
	m.metrics[s.Name()] = &Metrics{}
	return nil
}

func (m *Manager) HasSystem(name string) bool {
	_, ok := m.metrics[name]
	return ok
}

// GetExecutionOrder returns system names in the order Update runs them.
func (m *Manager) GetExecutionOrder() []string {
	order := make([]string, len(m.systems))
	for i, s := range m.systems {
		order[i] = s.Name()
	}
	return order
}

// Update runs every system once. The first failing system aborts the tick so
// later systems never read a half-updated frame.
func (m *Manager) Update(deltaTime float64, world World) error {
	for _, s := range m.systems {
		start := time.Now()
		err := s.Update(deltaTime, world)
		m.record(s.Name(), time.Since(start), err)
		if err != nil {
			return fmt.Errorf("system %s: %w", s.Name(), err)
		}
	}
	return nil
}

// GetSystemMetrics returns a copy of the metrics for the named system.
func (m *Manager) GetSystemMetrics(name string) (Metrics, bool) {
	metrics, ok := m.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *metrics, true
}

func (m *Manager) record(name string, took time.Duration, err error) {
	metrics := m.metrics[name]
	metrics.ExecutionCount++
	metrics.TotalExecutionTime += took
	metrics.AverageExecutionTime = metrics.TotalExecutionTime / time.Duration(metrics.ExecutionCount)
	metrics.MaxExecutionTime = max(metrics.MaxExecutionTime, took)
	if err != nil {
		metrics.ErrorCount++
		metrics.LastError = err
	}
}
