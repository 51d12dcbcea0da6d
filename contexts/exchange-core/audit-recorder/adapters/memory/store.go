package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"resupply/contexts/exchange-core/audit-recorder/domain/entities"
)

// Store is an in-memory append-only trail for tests and local runs.
// Entries are copied on the way in and out so callers cannot mutate
// recorded history.
type Store struct {
	mu      sync.RWMutex
	entries []entities.AuditLogEntry
	seen    map[string]struct{}
}

func NewStore() *Store {
	return &Store{seen: make(map[string]struct{})}
}

func (s *Store) AppendEntry(_ context.Context, entry entities.AuditLogEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.DedupKey()
	if _, dup := s.seen[key]; dup {
		return false, nil
	}
	s.seen[key] = struct{}{}
	s.entries = append(s.entries, cloneEntry(entry))
	return true, nil
}

func (s *Store) ListByEntity(_ context.Context, organizationID string, entity string, entityID string, limit int) ([]entities.AuditLogEntry, error) {
	return s.filter(limit, func(e entities.AuditLogEntry) bool {
		return e.OrganizationID == organizationID && e.Entity == entity && e.EntityID == entityID
	}), nil
}

func (s *Store) ListByActor(_ context.Context, organizationID string, actorID string, limit int) ([]entities.AuditLogEntry, error) {
	return s.filter(limit, func(e entities.AuditLogEntry) bool {
		return e.OrganizationID == organizationID && e.ChangedBy == actorID
	}), nil
}

func (s *Store) ListByTimeRange(_ context.Context, organizationID string, from time.Time, to time.Time, limit int) ([]entities.AuditLogEntry, error) {
	return s.filter(limit, func(e entities.AuditLogEntry) bool {
		return e.OrganizationID == organizationID && !e.ChangedAt.Before(from) && !e.ChangedAt.After(to)
	}), nil
}

// Len reports the number of recorded entries across all tenants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) filter(limit int, keep func(entities.AuditLogEntry) bool) []entities.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.AuditLogEntry, 0)
	for _, entry := range s.entries {
		if keep(entry) {
			matched = append(matched, cloneEntry(entry))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ChangedAt.After(matched[j].ChangedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func cloneEntry(entry entities.AuditLogEntry) entities.AuditLogEntry {
	out := entry
	if entry.Before != nil {
		out.Before = append([]byte(nil), entry.Before...)
	}
	if entry.After != nil {
		out.After = append([]byte(nil), entry.After...)
	}
	return out
}
