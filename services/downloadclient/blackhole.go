// Package downloadclient hands grabbed releases to a download client and
// reports their progress back.
package downloadclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrNotFound            = errors.New("download not found")
	ErrTitleRequired       = errors.New("release title is required")
	ErrDownloadURLRequired = errors.New("release download url is required")
	ErrWatchDirNotSet      = errors.New("download client watch directory not configured")
	ErrCompletedDirNotSet  = errors.New("download client completed directory not configured")
	ErrUnsupportedProtocol = errors.New("release protocol not supported by the blackhole client")
)

const (
	manifestDir  = ".novagrab"
	failedSuffix = ".failed"
)

type settingsProvider interface {
	Load() (config.Settings, error)
}

// manifest is what the blackhole remembers about a download it handed off.
type manifest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Protocol    models.Protocol `json:"protocol"`
	DownloadURL string          `json:"downloadUrl"`
	SizeBytes   int64           `json:"sizeBytes"`
	WatchFile   string          `json:"watchFile"`
	AddedAt     time.Time       `json:"addedAt"`
}

// Blackhole drops link files into a watch directory picked up by an external
// downloader and watches a completed directory for the finished payloads.
//
// A payload counts as complete once an entry named after the release title
// exists in the completed directory without partial files inside it. An
// entry called "<title>.failed" marks the download as failed; its content is
// used as the failure message.
type Blackhole struct {
	fs    afero.Fs
	cfg   settingsProvider
	clock clock.Clock
	mu    sync.Mutex
}

func NewBlackhole(fsys afero.Fs, cfg settingsProvider) *Blackhole {
	return &Blackhole{fs: fsys, cfg: cfg, clock: clock.Real()}
}

// SetClock replaces the clock used to stamp new downloads.
func (b *Blackhole) SetClock(c clock.Clock) {
	b.clock = c
}

func (b *Blackhole) Name() string {
	settings, err := b.cfg.Load()
	if err != nil || strings.TrimSpace(settings.DownloadClient.Name) == "" {
		return "blackhole"
	}
	return settings.DownloadClient.Name
}

func (b *Blackhole) settings() (config.DownloadClientSettings, error) {
	if b.cfg == nil {
		return config.DownloadClientSettings{}, errors.New("config manager not configured")
	}
	settings, err := b.cfg.Load()
	if err != nil {
		return config.DownloadClientSettings{}, fmt.Errorf("load settings: %w", err)
	}
	dl := settings.DownloadClient
	if strings.TrimSpace(dl.WatchDir) == "" {
		return dl, ErrWatchDirNotSet
	}
	if strings.TrimSpace(dl.CompletedDir) == "" {
		return dl, ErrCompletedDirNotSet
	}
	return dl, nil
}

// Add writes the link file for the candidate and returns the id the
// download is tracked under.
func (b *Blackhole) Add(ctx context.Context, c models.Candidate) (string, error) {
	dl, err := b.settings()
	if err != nil {
		return "", err
	}
	release := c.Release
	if strings.TrimSpace(release.Title) == "" {
		return "", ErrTitleRequired
	}
	if strings.TrimSpace(release.DownloadURL) == "" {
		return "", ErrDownloadURLRequired
	}
	ext, err := linkExtension(release)
	if err != nil {
		return "", err
	}

	m := manifest{
		ID:          uuid.NewString(),
		Title:       release.Title,
		Protocol:    release.Protocol,
		DownloadURL: release.DownloadURL,
		SizeBytes:   release.SizeBytes,
		WatchFile:   filepath.Join(dl.WatchDir, sanitizeName(release.Title)+ext),
		AddedAt:     b.clock.Now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.withRetry(ctx, dl, "add "+release.Title, func() error {
		if err := b.fs.MkdirAll(filepath.Join(dl.WatchDir, manifestDir), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(b.fs, m.WatchFile, []byte(release.DownloadURL+"\n"), 0o644); err != nil {
			return err
		}
		return b.writeManifest(dl, m)
	})
	if err != nil {
		return "", fmt.Errorf("add %q to blackhole: %w", release.Title, err)
	}
	log.Printf("[downloadclient] queued %q as %s", release.Title, m.ID)
	return m.ID, nil
}

// Status reports the current state of one download.
func (b *Blackhole) Status(ctx context.Context, id string) (models.ClientStatus, error) {
	dl, err := b.settings()
	if err != nil {
		return models.ClientStatus{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.readManifest(dl, id)
	if err != nil {
		return models.ClientStatus{}, err
	}
	return b.status(dl, m), nil
}

// List reports every download the blackhole knows about, oldest first.
func (b *Blackhole) List(ctx context.Context) ([]models.ClientStatus, error) {
	dl, err := b.settings()
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := afero.ReadDir(b.fs, filepath.Join(dl.WatchDir, manifestDir))
	if errors.Is(err, os.ErrNotExist) {
		return []models.ClientStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list blackhole: %w", err)
	}
	manifests := make([]manifest, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		m, err := b.readManifest(dl, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			log.Printf("[downloadclient] skipping %s: %v", entry.Name(), err)
			continue
		}
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].AddedAt.Equal(manifests[j].AddedAt) {
			return manifests[i].AddedAt.Before(manifests[j].AddedAt)
		}
		return manifests[i].ID < manifests[j].ID
	})

	out := make([]models.ClientStatus, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, b.status(dl, m))
	}
	return out, nil
}

// Remove forgets a download. With deleteData the payload in the completed
// directory is deleted as well.
func (b *Blackhole) Remove(ctx context.Context, id string, deleteData bool) error {
	dl, err := b.settings()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.readManifest(dl, id)
	if err != nil {
		return err
	}

	err = b.withRetry(ctx, dl, "remove "+m.Title, func() error {
		if err := removeIfExists(b.fs, m.WatchFile); err != nil {
			return err
		}
		if deleteData {
			name := sanitizeName(m.Title)
			if path, _, ok := b.findPayload(dl.CompletedDir, name); ok {
				if err := b.fs.RemoveAll(path); err != nil {
					return err
				}
			}
			if err := removeIfExists(b.fs, filepath.Join(dl.CompletedDir, name+failedSuffix)); err != nil {
				return err
			}
		}
		return removeIfExists(b.fs, b.manifestPath(dl, m.ID))
	})
	if err != nil {
		return fmt.Errorf("remove %s from blackhole: %w", id, err)
	}
	log.Printf("[downloadclient] removed %q (%s, deleteData=%t)", m.Title, id, deleteData)
	return nil
}

func (b *Blackhole) status(dl config.DownloadClientSettings, m manifest) models.ClientStatus {
	st := models.ClientStatus{
		ExternalID: m.ID,
		Title:      m.Title,
		State:      models.ClientStateQueued,
		SizeBytes:  m.SizeBytes,
		SizeLeft:   m.SizeBytes,
	}
	name := sanitizeName(m.Title)

	if data, err := afero.ReadFile(b.fs, filepath.Join(dl.CompletedDir, name+failedSuffix)); err == nil {
		st.State = models.ClientStateFailed
		st.Message = strings.TrimSpace(string(data))
		if st.Message == "" {
			st.Message = "download failed"
		}
		return st
	}

	if path, info, ok := b.findPayload(dl.CompletedDir, name); ok {
		size, partial := b.payloadSize(path, info)
		st.OutputPath = path
		if partial {
			st.State = models.ClientStateDownloading
			st.SizeLeft = m.SizeBytes - size
			if st.SizeLeft <= 0 {
				st.SizeLeft = 1
			}
			return st
		}
		st.State = models.ClientStateCompleted
		st.SizeLeft = 0
		if size > 0 {
			st.SizeBytes = size
		}
		return st
	}

	if _, err := b.fs.Stat(m.WatchFile); errors.Is(err, os.ErrNotExist) {
		// the downloader picked up the link file
		st.State = models.ClientStateDownloading
	}
	return st
}

// findPayload looks for the completed entry of a release, either named
// exactly after it or after it plus one extension.
func (b *Blackhole) findPayload(dir, name string) (string, os.FileInfo, bool) {
	entries, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return "", nil, false
	}
	for _, entry := range entries {
		n := entry.Name()
		if n == name+failedSuffix {
			continue
		}
		if n == name || strings.TrimSuffix(n, filepath.Ext(n)) == name {
			return filepath.Join(dir, n), entry, true
		}
	}
	return "", nil, false
}

func (b *Blackhole) payloadSize(path string, info os.FileInfo) (int64, bool) {
	if !info.IsDir() {
		return info.Size(), isPartial(info.Name())
	}
	var (
		total   int64
		partial bool
	)
	_ = afero.Walk(b.fs, path, func(_ string, fi fs.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return nil
		}
		total += fi.Size()
		if isPartial(fi.Name()) {
			partial = true
		}
		return nil
	})
	return total, partial
}

func (b *Blackhole) manifestPath(dl config.DownloadClientSettings, id string) string {
	return filepath.Join(dl.WatchDir, manifestDir, id+".json")
}

func (b *Blackhole) readManifest(dl config.DownloadClientSettings, id string) (manifest, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) {
		return manifest{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := afero.ReadFile(b.fs, b.manifestPath(dl, id))
	if errors.Is(err, os.ErrNotExist) {
		return manifest{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest %s: %w", id, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("decode manifest %s: %w", id, err)
	}
	return m, nil
}

func (b *Blackhole) writeManifest(dl config.DownloadClientSettings, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return retry.Unrecoverable(err)
	}
	return afero.WriteFile(b.fs, b.manifestPath(dl, m.ID), data, 0o644)
}

func (b *Blackhole) withRetry(ctx context.Context, dl config.DownloadClientSettings, op string, fn func() error) error {
	attempts := dl.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Duration(dl.RetryDelayMs)*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[downloadclient] %s failed (attempt %d/%d): %v", op, n+1, attempts, err)
		}),
	)
}

func linkExtension(r models.RawRelease) (string, error) {
	switch r.Protocol {
	case models.ProtocolUsenet:
		return ".nzb", nil
	case models.ProtocolTorrent:
		if strings.HasPrefix(strings.ToLower(r.DownloadURL), "magnet:") {
			return ".magnet", nil
		}
		return ".torrent", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, r.Protocol)
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".!qb")
}

func removeIfExists(fsys afero.Fs, path string) error {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// sanitizeName turns a release title into a safe file name.
func sanitizeName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "release"
	}
	return name
}
