// Package journal records the progress of onboarding runs so a failed run can
// be inspected and resumed later.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"customer-onboarding/shared"
)

// ErrNotFound is returned when no entry exists for a run id.
var ErrNotFound = errors.New("onboarding run not found")

// Status is the state of a run as of its latest entry.
type Status string

const (
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// Entry is the latest known state of one run.
type Entry struct {
	RunID      string               `json:"runId"`
	Step       string               `json:"step"`
	Status     Status               `json:"status"`
	Partial    shared.PartialResult `json:"partial"`
	Error      string               `json:"error,omitempty"`
	StatusCode int                  `json:"statusCode,omitempty"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// Recorder stores entries. Each entry replaces the previous one for its run.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Reader loads the latest entry of a run.
type Reader interface {
	Get(ctx context.Context, runID string) (Entry, error)
}

// Store both records and reads entries.
type Store interface {
	Recorder
	Reader
}

// Memory is an in-process journal.
type Memory struct {
	mu      sync.RWMutex
	latest  map[string]Entry
	history map[string][]Entry
}

func NewMemory() *Memory {
	return &Memory{
		latest:  make(map[string]Entry),
		history: make(map[string][]Entry),
	}
}

func (m *Memory) Record(ctx context.Context, e Entry) error {
	e.Partial = e.Partial.Snapshot()
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[e.RunID] = e
	m.history[e.RunID] = append(m.history[e.RunID], e)
	return nil
}

func (m *Memory) Get(ctx context.Context, runID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.latest[runID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// History returns every entry recorded for runID, oldest first.
func (m *Memory) History(runID string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.history[runID]...)
}
