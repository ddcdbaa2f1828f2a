package history

import (
	"context"
	"sync"

	"novagrab/internal/clock"
	"novagrab/models"
)

// MemoryStore keeps the ledger in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	clock     clock.Clock
	records   []models.HistoryRecord
	blocklist []models.BlocklistEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clock: clock.Real()}
}

// SetClock replaces the clock used to stamp records without a date.
func (s *MemoryStore) SetClock(c clock.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

func (s *MemoryStore) Append(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.HistoryRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := prepareRecord(rec, s.clock)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	s.records = append(s.records, cloneRecord(rec))
	return rec, nil
}

func (s *MemoryStore) ForEntity(ctx context.Context, entityID string, limit int) ([]models.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.HistoryRecord, 0)
	for _, rec := range s.records {
		if rec.EntityID == entityID {
			out = append(out, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	sortRecent(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ByDownloadID(ctx context.Context, downloadID string) ([]models.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.HistoryRecord, 0)
	for _, rec := range s.records {
		if downloadID != "" && rec.DownloadID == downloadID {
			out = append(out, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	sortRecent(out)
	return out, nil
}

func (s *MemoryStore) AddBlocklist(ctx context.Context, entry models.BlocklistEntry) (models.BlocklistEntry, error) {
	if err := ctx.Err(); err != nil {
		return models.BlocklistEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := prepareEntry(entry, s.clock)
	if err != nil {
		return models.BlocklistEntry{}, err
	}
	s.blocklist = append(s.blocklist, entry)
	return entry, nil
}

func (s *MemoryStore) BlocklistForEntity(ctx context.Context, entityID string) ([]models.BlocklistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BlocklistEntry, 0)
	for _, entry := range s.blocklist {
		if entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *MemoryStore) IsBlocklisted(ctx context.Context, entityID string, release models.RawRelease) (bool, error) {
	entries, err := s.BlocklistForEntity(ctx, entityID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Matches(release) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, entityID string) (*Snapshot, error) {
	records, err := s.ForEntity(ctx, entityID, 0)
	if err != nil {
		return nil, err
	}
	entries, err := s.BlocklistForEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(entityID, records, entries), nil
}

func (s *MemoryStore) Close() error { return nil }
