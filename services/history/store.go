// Package history is the append-only ledger of grabs, imports and failures
// plus the blocklist that keeps failed releases from being picked again.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"

	"github.com/google/uuid"
)

var (
	ErrEntityIDRequired   = errors.New("entity id is required")
	ErrEventTypeRequired  = errors.New("event type is required")
	ErrIdentityRequired   = errors.New("blocklist entry needs a guid, source title or download id")
	ErrUnknownStoreDriver = errors.New("unknown history store driver")
)

// Store persists history records and blocklist entries. Implementations only
// insert; nothing is ever updated in place.
type Store interface {
	Append(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error)
	// ForEntity returns records for one entity, most recent first. A limit of
	// zero returns everything.
	ForEntity(ctx context.Context, entityID string, limit int) ([]models.HistoryRecord, error)
	ByDownloadID(ctx context.Context, downloadID string) ([]models.HistoryRecord, error)
	AddBlocklist(ctx context.Context, entry models.BlocklistEntry) (models.BlocklistEntry, error)
	BlocklistForEntity(ctx context.Context, entityID string) ([]models.BlocklistEntry, error)
	IsBlocklisted(ctx context.Context, entityID string, release models.RawRelease) (bool, error)
	Snapshot(ctx context.Context, entityID string) (*Snapshot, error)
	Close() error
}

// Open builds the store selected by the database settings.
func Open(ctx context.Context, settings config.DatabaseSettings) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Driver)) {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3", "":
		return OpenSQLite(ctx, settings.Path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStoreDriver, settings.Driver)
}

func prepareRecord(rec models.HistoryRecord, c clock.Clock) (models.HistoryRecord, error) {
	rec.EntityID = strings.TrimSpace(rec.EntityID)
	if rec.EntityID == "" {
		return rec, ErrEntityIDRequired
	}
	if rec.EventType == "" {
		return rec, ErrEventTypeRequired
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = c.Now()
	}
	rec.Date = rec.Date.UTC()
	if rec.Data != nil {
		data := make(map[string]string, len(rec.Data))
		for k, v := range rec.Data {
			data[k] = v
		}
		rec.Data = data
	}
	return rec, nil
}

func prepareEntry(entry models.BlocklistEntry, c clock.Clock) (models.BlocklistEntry, error) {
	entry.EntityID = strings.TrimSpace(entry.EntityID)
	if entry.EntityID == "" {
		return entry, ErrEntityIDRequired
	}
	if entry.GUID == "" && entry.SourceTitle == "" && entry.DownloadID == "" {
		return entry, ErrIdentityRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date.IsZero() {
		entry.Date = c.Now()
	}
	entry.Date = entry.Date.UTC()
	return entry, nil
}

// sortRecent orders records newest first. Records sharing a timestamp keep
// reverse insertion order, so callers must pass them oldest first.
func sortRecent(records []models.HistoryRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

func cloneRecord(rec models.HistoryRecord) models.HistoryRecord {
	out := rec
	if rec.Languages != nil {
		out.Languages = append(out.Languages[:0:0], rec.Languages...)
	}
	if rec.Data != nil {
		out.Data = make(map[string]string, len(rec.Data))
		for k, v := range rec.Data {
			out.Data[k] = v
		}
	}
	return out
}

// LatestGrab returns the most recent Grabbed record whose download has not
// since failed.
func LatestGrab(records []models.HistoryRecord) (models.HistoryRecord, bool) {
	failed := make(map[string]time.Time)
	for _, rec := range records {
		if rec.EventType == models.HistoryFailed && rec.DownloadID != "" {
			if at, ok := failed[rec.DownloadID]; !ok || rec.Date.After(at) {
				failed[rec.DownloadID] = rec.Date
			}
		}
	}
	for _, rec := range records {
		if rec.EventType != models.HistoryGrabbed {
			continue
		}
		if at, ok := failed[rec.DownloadID]; ok && !at.Before(rec.Date) {
			continue
		}
		return rec, true
	}
	return models.HistoryRecord{}, false
}
