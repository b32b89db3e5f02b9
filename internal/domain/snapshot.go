package domain

import (
	"encoding/json"
	"time"
)

// Snapshot holds the samples of one collection pass in spec order.
type Snapshot struct {
	Host    string
	Taken   time.Time
	samples []MetricSample
	index   map[string]int
}

func NewSnapshot(host string, taken time.Time) *Snapshot {
	return &Snapshot{
		Host:  host,
		Taken: taken,
		index: make(map[string]int),
	}
}

// Add appends a sample. A second sample with the same name replaces the
// first in place.
func (s *Snapshot) Add(sample MetricSample) {
	if i, ok := s.index[sample.Spec.Name]; ok {
		s.samples[i] = sample
		return
	}
	s.index[sample.Spec.Name] = len(s.samples)
	s.samples = append(s.samples, sample)
}

func (s *Snapshot) Get(name string) (MetricSample, bool) {
	i, ok := s.index[name]
	if !ok {
		return MetricSample{}, false
	}
	return s.samples[i], true
}

// Samples returns a copy of the samples in insertion order.
func (s *Snapshot) Samples() []MetricSample {
	out := make([]MetricSample, len(s.samples))
	copy(out, s.samples)
	return out
}

func (s *Snapshot) Len() int {
	return len(s.samples)
}

type snapshotJSON struct {
	Host    string           `json:"host"`
	Taken   time.Time        `json:"taken"`
	Metrics map[string]Value `json:"metrics"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	metrics := make(map[string]Value, len(s.samples))
	for _, sample := range s.samples {
		metrics[sample.Spec.Name] = sample.Value
	}

	return json.Marshal(snapshotJSON{
		Host:    s.Host,
		Taken:   s.Taken,
		Metrics: metrics,
	})
}
