// Package memory provides an in-memory statement sink for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"koinochrista/internal/core"
	"koinochrista/internal/export"
)

type Sink struct {
	mu         sync.Mutex
	statements map[string]*core.Statement
}

var _ export.StatementWriter = (*Sink)(nil)

func New() *Sink {
	return &Sink{statements: make(map[string]*core.Statement)}
}

func (s *Sink) WriteStatement(_ context.Context, st *core.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements[key(st.BuildingID, st.MonthLabel)] = st
	return nil
}

// Get returns the last exported statement for (building, month label).
func (s *Sink) Get(buildingID int64, monthLabel string) (*core.Statement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statements[key(buildingID, monthLabel)]
	return st, ok
}

// Count returns the number of distinct exported statements.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statements)
}

func key(buildingID int64, monthLabel string) string {
	return fmt.Sprintf("%d:%s", buildingID, monthLabel)
}
