package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/rulekit/pkg/audit"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Records do not survive a restart.
type MemoryStorage struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Store persists an audit record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = copyRecord(record)
	return nil
}

// Get returns the record with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, audit.ErrNotFound
	}
	return copyRecord(record), nil
}

// Query retrieves audit records matching the query filters, sorted and
// paginated as the query asks.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	s.mu.RLock()
	results := []*audit.Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of audit records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes audit records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*audit.Record)
	return nil
}

// Size returns the number of records in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query.StartTime != nil && record.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.Timestamp.After(*query.EndTime) {
		return false
	}
	if len(query.IDs) > 0 && !containsID(query.IDs, record.ID) {
		return false
	}
	if query.EvaluationID != "" && record.EvaluationID != query.EvaluationID {
		return false
	}
	if query.Ruleset != "" && record.Ruleset != query.Ruleset {
		return false
	}
	if query.RuleID != "" && record.RuleID != query.RuleID {
		return false
	}
	if query.Kind != "" && record.Kind != query.Kind {
		return false
	}
	if query.Success != nil && record.Success != *query.Success {
		return false
	}
	return true
}

// sortRecords orders records by field, newest first unless order is "asc".
// Ties are broken by ID so that results are stable.
func sortRecords(records []*audit.Record, field, order string) {
	asc := order == "asc"
	compare := func(a, b *audit.Record) int {
		switch field {
		case "rule_id":
			if a.RuleID != b.RuleID {
				if a.RuleID < b.RuleID {
					return -1
				}
				return 1
			}
		case "duration":
			if a.Duration != b.Duration {
				if a.Duration < b.Duration {
					return -1
				}
				return 1
			}
		default:
			if !a.Timestamp.Equal(b.Timestamp) {
				if a.Timestamp.Before(b.Timestamp) {
					return -1
				}
				return 1
			}
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	}

	sort.SliceStable(records, func(i, j int) bool {
		c := compare(records[i], records[j])
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func copyRecord(record *audit.Record) *audit.Record {
	c := *record
	if record.Consequences != nil {
		c.Consequences = make(map[string]string, len(record.Consequences))
		for k, v := range record.Consequences {
			c.Consequences[k] = v
		}
	}
	return &c
}
