package history

import "novagrab/models"

// Snapshot is a read-only copy of one entity's history and blocklist taken
// at the start of a search cycle. Writes to the store after the snapshot is
// taken are not visible through it.
type Snapshot struct {
	entityID  string
	records   []models.HistoryRecord
	blocklist []models.BlocklistEntry
}

// NewSnapshot copies records (most recent first) and blocklist entries.
func NewSnapshot(entityID string, records []models.HistoryRecord, blocklist []models.BlocklistEntry) *Snapshot {
	snap := &Snapshot{
		entityID:  entityID,
		records:   make([]models.HistoryRecord, len(records)),
		blocklist: make([]models.BlocklistEntry, len(blocklist)),
	}
	for i, rec := range records {
		snap.records[i] = cloneRecord(rec)
	}
	copy(snap.blocklist, blocklist)
	return snap
}

// EntityID is the entity the snapshot was taken for.
func (s *Snapshot) EntityID() string {
	if s == nil {
		return ""
	}
	return s.entityID
}

// Blocklisted returns the first blocklist entry matching release.
func (s *Snapshot) Blocklisted(release models.RawRelease) (models.BlocklistEntry, bool) {
	if s == nil {
		return models.BlocklistEntry{}, false
	}
	for _, entry := range s.blocklist {
		if entry.Matches(release) {
			return entry, true
		}
	}
	return models.BlocklistEntry{}, false
}

// History returns the records of entityID, most recent first.
func (s *Snapshot) History(entityID string) []models.HistoryRecord {
	if s == nil || entityID != s.entityID {
		return nil
	}
	out := make([]models.HistoryRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = cloneRecord(rec)
	}
	return out
}
