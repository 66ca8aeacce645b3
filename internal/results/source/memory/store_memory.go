// Package memory provides a seedable in-memory result source. Tests and
// single-process demos use it in place of a real backing store.
package memory

import (
	"context"
	"sync"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

// InMemorySource holds result records keyed by normalized roll number.
type InMemorySource struct {
	id      string
	mu      sync.RWMutex
	records map[string]models.ResultRecord
}

// New creates an empty in-memory source with the given ID.
func New(id string) *InMemorySource {
	return &InMemorySource{
		id:      id,
		records: make(map[string]models.ResultRecord),
	}
}

// Seed inserts or replaces a record, keyed by its roll number.
func (s *InMemorySource) Seed(record models.ResultRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.RollNumber] = record
}

func (s *InMemorySource) ID() string {
	return s.id
}

func (s *InMemorySource) Query(_ context.Context, q models.RollQuery) source.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[q.RollNumber]
	if !exists {
		return source.NotFound()
	}
	if q.ExamYear != 0 && record.ExamYear != q.ExamYear {
		return source.NotFound()
	}
	if q.ExamType != "" && record.ExamType != q.ExamType {
		return source.NotFound()
	}

	record.SourceID = s.id
	return source.Found(&record)
}

// Ping always succeeds; the store lives in-process.
func (s *InMemorySource) Ping(_ context.Context) error {
	return nil
}
