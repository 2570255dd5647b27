package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded search. Params keeps the canonical request as JSON
// so history survives request-model changes.
type Entry struct {
	ID           string          `json:"id"`
	User         string          `json:"user,omitempty"`
	SearchType   string          `json:"search_type"` // flight, hotel, weather
	Params       json.RawMessage `json:"params"`
	ResultsCount int             `json:"results_count"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Store records searches. Recording is best-effort from the caller's point
// of view: a failed write must never fail the search itself.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// NewEntry stamps id and timestamp and serializes the request parameters.
func NewEntry(user, searchType string, params any, resultsCount int) Entry {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = json.RawMessage(`{}`)
	}
	return Entry{
		ID:           uuid.NewString(),
		User:         user,
		SearchType:   searchType,
		Params:       raw,
		ResultsCount: resultsCount,
		CreatedAt:    time.Now().UTC(),
	}
}

const defaultMemoryCap = 100

// Memory keeps the most recent entries in process memory. It is the default
// when no history DSN is configured.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCap
	}
	return &Memory{cap: capacity}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.cap {
		m.entries = m.entries[len(m.entries)-m.cap:]
	}
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
