package models

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// HistoryEventType classifies a ledger record.
type HistoryEventType string

const (
	HistoryGrabbed  HistoryEventType = "grabbed"
	HistoryImported HistoryEventType = "imported"
	HistoryFailed   HistoryEventType = "failed"
	HistoryRenamed  HistoryEventType = "renamed"
	HistoryDeleted  HistoryEventType = "deleted"
)

// HistoryRecord is an immutable fact about something that happened to a
// library entity. Records are only ever inserted.
type HistoryRecord struct {
	ID          string            `json:"id"`
	EntityID    string            `json:"entityId"`
	EventType   HistoryEventType  `json:"eventType"`
	Date        time.Time         `json:"date"`
	Quality     QualityModel      `json:"quality"`
	Languages   []language.Tag    `json:"languages,omitempty"`
	SourceTitle string            `json:"sourceTitle"`
	DownloadID  string            `json:"downloadId,omitempty"`
	GUID        string            `json:"guid,omitempty"`
	IndexerID   string            `json:"indexerId,omitempty"`
	Protocol    Protocol          `json:"protocol,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// BlocklistEntry prevents a failed release from being selected again.
type BlocklistEntry struct {
	ID          string       `json:"id"`
	EntityID    string       `json:"entityId"`
	SourceTitle string       `json:"sourceTitle"`
	GUID        string       `json:"guid,omitempty"`
	IndexerID   string       `json:"indexerId,omitempty"`
	DownloadID  string       `json:"downloadId,omitempty"`
	Protocol    Protocol     `json:"protocol,omitempty"`
	Quality     QualityModel `json:"quality"`
	Date        time.Time    `json:"date"`
	Message     string       `json:"message,omitempty"`
}

// Matches reports whether the entry blocks release. A match needs either the
// same guid on the same indexer or, for entries without a guid, the same
// source title on the same indexer.
func (b BlocklistEntry) Matches(release RawRelease) bool {
	if b.GUID != "" && release.GUID != "" {
		return b.GUID == release.GUID && strings.EqualFold(b.IndexerID, release.IndexerID)
	}
	if b.GUID == "" && b.SourceTitle != "" {
		return strings.EqualFold(b.SourceTitle, release.Title) && strings.EqualFold(b.IndexerID, release.IndexerID)
	}
	return false
}

// MatchesDownload reports whether the entry was written for a download client id.
func (b BlocklistEntry) MatchesDownload(downloadID string) bool {
	return b.DownloadID != "" && b.DownloadID == downloadID
}
