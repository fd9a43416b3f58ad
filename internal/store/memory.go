package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryStore implements HistoryStore for testing and for runs with
// history disabled.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*Run)}
}

// RecordRun implements HistoryStore.
func (s *InMemoryStore) RecordRun(ctx context.Context, r Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.ID == "" {
		r.ID = NewRunID(r.StartedAt, r.WorkingDir+r.Tree)
	}
	if _, exists := s.runs[r.ID]; exists {
		return "", fmt.Errorf("run already exists: %s", r.ID)
	}
	cp := r
	cp.Parameters = append([]Parameter(nil), r.Parameters...)
	cp.Metrics = nil
	s.runs[r.ID] = &cp
	s.addMetricsLocked(&cp, r.Metrics)
	return r.ID, nil
}

// AddMetrics implements HistoryStore.
func (s *InMemoryStore) AddMetrics(ctx context.Context, runID string, metrics []Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	s.addMetricsLocked(r, metrics)
	return nil
}

func (s *InMemoryStore) addMetricsLocked(r *Run, metrics []Metric) {
	for _, m := range metrics {
		replaced := false
		for i, old := range r.Metrics {
			if old.Variable == m.Variable && old.Period == m.Period && old.Name == m.Name && old.Transform == m.Transform {
				r.Metrics[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			r.Metrics = append(r.Metrics, m)
		}
	}
	sort.Slice(r.Metrics, func(i, j int) bool {
		a, b := r.Metrics[i], r.Metrics[j]
		if a.Variable != b.Variable {
			return a.Variable < b.Variable
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Transform < b.Transform
	})
}

// GetRun implements HistoryStore.
func (s *InMemoryStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	cp := *r
	cp.Parameters = append([]Parameter(nil), r.Parameters...)
	cp.Metrics = append([]Metric(nil), r.Metrics...)
	return &cp, nil
}

// ListRuns implements HistoryStore.
func (s *InMemoryStore) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	for _, r := range s.sortedLocked() {
		if opts.WorkingDir != "" && r.WorkingDir != opts.WorkingDir {
			continue
		}
		cp := *r
		cp.Tree, cp.Parameters, cp.Metrics = "", nil, nil
		out = append(out, cp)
	}
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ParameterHistory implements HistoryStore.
func (s *InMemoryStore) ParameterHistory(ctx context.Context, name string) ([]ParameterPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ParameterPoint
	for _, r := range s.sortedLocked() {
		for _, p := range r.Parameters {
			if p.Name == name {
				out = append(out, ParameterPoint{RunID: r.ID, Label: r.Label, StartedAt: r.StartedAt, Parameter: p})
			}
		}
	}
	return out, nil
}

// MetricHistory implements HistoryStore.
func (s *InMemoryStore) MetricHistory(ctx context.Context, name string) ([]MetricPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MetricPoint
	for _, r := range s.sortedLocked() {
		for _, m := range r.Metrics {
			if name == "" || m.Name == name {
				out = append(out, MetricPoint{RunID: r.ID, Label: r.Label, StartedAt: r.StartedAt, Metric: m})
			}
		}
	}
	return out, nil
}

// Close implements HistoryStore.
func (s *InMemoryStore) Close() error { return nil }

// sortedLocked returns runs oldest first.
func (s *InMemoryStore) sortedLocked() []*Run {
	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
