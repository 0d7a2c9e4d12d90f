package monitor

import (
	"sort"
	"sync"
	"time"

	"sla-service/internal/models"
)

// entry is the in-memory view of one active record. mu serializes the
// completion path and the sweeper; whichever sets resolved first wins.
// requestID and targetAt are set once and may be read without mu.
type entry struct {
	requestID string
	targetAt  time.Time

	mu          sync.Mutex
	record      models.Record
	checkpoints []float64
	escalated   map[float64]bool
	resolved    bool
}

// newEntry keeps only checkpoints that fall before the record's target.
func newEntry(rec models.Record, checkpoints []float64, fired []float64) *entry {
	e := &entry{
		requestID: rec.RequestID,
		targetAt:  rec.TargetAt,
		record:    rec,
		escalated: make(map[float64]bool, len(checkpoints)),
	}
	for _, cp := range checkpoints {
		if cp > 0 && cp < rec.TargetHours {
			e.checkpoints = append(e.checkpoints, cp)
		}
	}
	sort.Float64s(e.checkpoints)
	for _, cp := range fired {
		e.escalated[cp] = true
	}
	return e
}

func (e *entry) firedCheckpoints() []float64 {
	out := make([]float64, 0, len(e.escalated))
	for cp := range e.escalated {
		out = append(out, cp)
	}
	sort.Float64s(out)
	return out
}

// ActiveSet indexes active entries by request id.
type ActiveSet struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewActiveSet creates an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{entries: make(map[string]*entry)}
}

func (s *ActiveSet) insert(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.requestID]; exists {
		return false
	}
	s.entries[e.requestID] = e
	return true
}

func (s *ActiveSet) get(requestID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[requestID]
	return e, ok
}

// remove deletes requestID only while it still maps to e.
func (s *ActiveSet) remove(requestID string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[requestID]; ok && cur == e {
		delete(s.entries, requestID)
	}
}

func (s *ActiveSet) snapshot() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the number of active entries.
func (s *ActiveSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
