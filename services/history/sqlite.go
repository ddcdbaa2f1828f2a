package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"novagrab/internal/clock"
	"novagrab/models"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"golang.org/x/text/language"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrDatabasePathRequired = errors.New("database path not provided")

var historyColumns = []string{
	"id", "entity_id", "event_type", "date", "quality", "languages",
	"source_title", "download_id", "guid", "indexer_id", "protocol", "data",
}

var blocklistColumns = []string{
	"id", "entity_id", "source_title", "guid", "indexer_id", "download_id",
	"protocol", "quality", "date", "message",
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteStore persists the ledger in a SQLite database. Both tables carry
// triggers that abort any UPDATE.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrDatabasePathRequired
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows one writer; a single connection keeps inserts serialised
	// without "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, clock: clock.Real()}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("history migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply history migrations: %w", err)
	}
	for _, res := range results {
		log.Printf("[history] applied migration %s", filepath.Base(res.Source.Path))
	}
	return nil
}

// SetClock replaces the clock used to stamp records without a date.
func (s *SQLiteStore) SetClock(c clock.Clock) {
	s.clock = c
}

func (s *SQLiteStore) Append(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error) {
	rec, err := prepareRecord(rec, s.clock)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	quality, err := json.Marshal(rec.Quality)
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("encode quality: %w", err)
	}
	langs, err := json.Marshal(languageStrings(rec.Languages))
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("encode languages: %w", err)
	}
	data, err := json.Marshal(nonNilData(rec.Data))
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("encode data: %w", err)
	}

	query, args, err := sq.Insert("history").
		Columns(historyColumns...).
		Values(rec.ID, rec.EntityID, string(rec.EventType), rec.Date.UnixNano(), string(quality), string(langs),
			rec.SourceTitle, rec.DownloadID, rec.GUID, rec.IndexerID, string(rec.Protocol), string(data)).
		ToSql()
	if err != nil {
		return models.HistoryRecord{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.HistoryRecord{}, fmt.Errorf("insert history: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ForEntity(ctx context.Context, entityID string, limit int) ([]models.HistoryRecord, error) {
	qb := sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("date DESC", "seq DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	return queryRecords(ctx, s.db, qb)
}

func (s *SQLiteStore) ByDownloadID(ctx context.Context, downloadID string) ([]models.HistoryRecord, error) {
	if downloadID == "" {
		return []models.HistoryRecord{}, nil
	}
	return queryRecords(ctx, s.db, sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"download_id": downloadID}).
		OrderBy("date DESC", "seq DESC"))
}

func queryRecords(ctx context.Context, q querier, qb sq.SelectBuilder) ([]models.HistoryRecord, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var (
			rec                  models.HistoryRecord
			eventType, protocol  string
			date                 int64
			quality, langs, data string
		)
		if err := rows.Scan(&rec.ID, &rec.EntityID, &eventType, &date, &quality, &langs,
			&rec.SourceTitle, &rec.DownloadID, &rec.GUID, &rec.IndexerID, &protocol, &data); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.EventType = models.HistoryEventType(eventType)
		rec.Protocol = models.Protocol(protocol)
		rec.Date = time.Unix(0, date).UTC()
		if err := json.Unmarshal([]byte(quality), &rec.Quality); err != nil {
			return nil, fmt.Errorf("decode quality of %s: %w", rec.ID, err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(langs), &tags); err != nil {
			return nil, fmt.Errorf("decode languages of %s: %w", rec.ID, err)
		}
		rec.Languages = parseLanguages(tags)
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return nil, fmt.Errorf("decode data of %s: %w", rec.ID, err)
		}
		if len(rec.Data) == 0 {
			rec.Data = nil
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddBlocklist(ctx context.Context, entry models.BlocklistEntry) (models.BlocklistEntry, error) {
	entry, err := prepareEntry(entry, s.clock)
	if err != nil {
		return models.BlocklistEntry{}, err
	}
	quality, err := json.Marshal(entry.Quality)
	if err != nil {
		return models.BlocklistEntry{}, fmt.Errorf("encode quality: %w", err)
	}
	query, args, err := sq.Insert("blocklist").
		Columns(blocklistColumns...).
		Values(entry.ID, entry.EntityID, entry.SourceTitle, entry.GUID, entry.IndexerID, entry.DownloadID,
			string(entry.Protocol), string(quality), entry.Date.UnixNano(), entry.Message).
		ToSql()
	if err != nil {
		return models.BlocklistEntry{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.BlocklistEntry{}, fmt.Errorf("insert blocklist: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) BlocklistForEntity(ctx context.Context, entityID string) ([]models.BlocklistEntry, error) {
	return queryBlocklist(ctx, s.db, entityID)
}

func queryBlocklist(ctx context.Context, q querier, entityID string) ([]models.BlocklistEntry, error) {
	query, args, err := sq.Select(blocklistColumns...).
		From("blocklist").
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocklist: %w", err)
	}
	defer rows.Close()

	out := make([]models.BlocklistEntry, 0)
	for rows.Next() {
		var (
			entry             models.BlocklistEntry
			protocol, quality string
			date              int64
		)
		if err := rows.Scan(&entry.ID, &entry.EntityID, &entry.SourceTitle, &entry.GUID, &entry.IndexerID,
			&entry.DownloadID, &protocol, &quality, &date, &entry.Message); err != nil {
			return nil, fmt.Errorf("scan blocklist: %w", err)
		}
		entry.Protocol = models.Protocol(protocol)
		entry.Date = time.Unix(0, date).UTC()
		if err := json.Unmarshal([]byte(quality), &entry.Quality); err != nil {
			return nil, fmt.Errorf("decode quality of %s: %w", entry.ID, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) IsBlocklisted(ctx context.Context, entityID string, release models.RawRelease) (bool, error) {
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

// Snapshot reads history and blocklist inside one read transaction so the
// two views are consistent with each other.
func (s *SQLiteStore) Snapshot(ctx context.Context, entityID string) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	records, err := queryRecords(ctx, tx, sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("date DESC", "seq DESC"))
	if err != nil {
		return nil, err
	}
	entries, err := queryBlocklist(ctx, tx, entityID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(entityID, records, entries), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func languageStrings(tags []language.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

func parseLanguages(values []string) []language.Tag {
	if len(values) == 0 {
		return nil
	}
	out := make([]language.Tag, 0, len(values))
	for _, v := range values {
		tag, err := language.Parse(v)
		if err != nil {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func nonNilData(data map[string]string) map[string]string {
	if data == nil {
		return map[string]string{}
	}
	return data
}
