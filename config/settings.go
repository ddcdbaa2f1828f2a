package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"novagrab/models"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server         ServerSettings         `json:"server"`
	Log            LogConfig              `json:"log"`
	Database       DatabaseSettings       `json:"database"`
	Library        LibrarySettings        `json:"library"`
	Indexers       []IndexerConfig        `json:"indexers"`
	DownloadClient DownloadClientSettings `json:"downloadClient"`
	Quality        QualitySettings        `json:"quality"`
	DelayProfile   models.DelayProfile    `json:"delayProfile"`
	Decision       DecisionSettings       `json:"decision"`
	Tracking       TrackingSettings       `json:"tracking"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DatabaseSettings selects the history ledger backend.
type DatabaseSettings struct {
	Driver string `json:"driver"` // "sqlite" or "memory"
	Path   string `json:"path"`
}

// LibrarySettings points at the catalog of wanted entities.
type LibrarySettings struct {
	CatalogPath string `json:"catalogPath"`
	// FFprobePath enables reading stream metadata from imported files.
	// Empty disables it.
	FFprobePath string `json:"ffprobePath"`
}

// IndexerType names a release source implementation.
type IndexerType string

const (
	IndexerTypeFolder IndexerType = "folder"
)

// IndexerConfig describes one release source and its seeding policy.
type IndexerConfig struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           IndexerType `json:"type"`
	Path           string      `json:"path,omitempty"`
	Protocol       string      `json:"protocol"`
	MinimumSeeders int         `json:"minimumSeeders"`
	Priority       int         `json:"priority"`
	Enabled        bool        `json:"enabled"`
}

// DownloadClientSettings configures the blackhole download client.
type DownloadClientSettings struct {
	Name          string `json:"name"`
	WatchDir      string `json:"watchDir"`
	CompletedDir  string `json:"completedDir"`
	RetryAttempts uint   `json:"retryAttempts"`
	RetryDelayMs  int    `json:"retryDelayMs"`
}

// QualitySettings holds quality definitions, profiles and custom formats.
type QualitySettings struct {
	Definitions    []models.QualityDefinition `json:"definitions"`
	Profiles       []models.QualityProfile    `json:"profiles"`
	DefaultProfile string                     `json:"defaultProfile"`
	CustomFormats  []models.CustomFormat      `json:"customFormats"`
}

// Profile resolves a profile by name, falling back to the default profile
// when name is empty.
func (q QualitySettings) Profile(name string) (models.QualityProfile, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = q.DefaultProfile
	}
	for _, p := range q.Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.QualityProfile{}, false
}

// Definition returns the size bounds configured for a quality.
func (q QualitySettings) Definition(quality string) (models.QualityDefinition, bool) {
	for _, d := range q.Definitions {
		if strings.EqualFold(d.Quality, quality) {
			return d, true
		}
	}
	return models.QualityDefinition{}, false
}

// DecisionSettings tunes searching and release selection.
type DecisionSettings struct {
	SearchTimeoutSeconds  int      `json:"searchTimeoutSeconds"`
	IndexerTimeoutSeconds int      `json:"indexerTimeoutSeconds"`
	SeedingHealthTiebreak bool     `json:"seedingHealthTiebreak"`
	EvaluationWorkers     int      `json:"evaluationWorkers"`
	RequiredTerms         []string `json:"requiredTerms"`
	FilterOutTerms        []string `json:"filterOutTerms"`
}

// TrackingSettings controls download polling and failure handling.
type TrackingSettings struct {
	PollIntervalSeconds int  `json:"pollIntervalSeconds"`
	BlocklistOnFailure  bool `json:"blocklistOnFailure"`
	AutoResearch        bool `json:"autoResearch"`
	ParallelPolls       int  `json:"parallelPolls"`
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7878},
		Log: LogConfig{
			File:       "cache/logs/novagrab.log",
			MaxSize:    50,   // MB per file
			MaxBackups: 3,    // old files kept
			MaxAge:     7,    // days
			Compress:   true, // gzip rotated files
		},
		Database: DatabaseSettings{Driver: "sqlite", Path: "cache/history.db"},
		Library:  LibrarySettings{CatalogPath: "cache/library.json"},
		Indexers: []IndexerConfig{
			{ID: "manual-import", Name: "Manual Import", Type: IndexerTypeFolder, Path: "cache/import", Protocol: "usenet", Priority: 25, Enabled: true},
		},
		DownloadClient: DownloadClientSettings{
			Name:          "blackhole",
			WatchDir:      "cache/blackhole/watch",
			CompletedDir:  "cache/blackhole/completed",
			RetryAttempts: 3,
			RetryDelayMs:  500,
		},
		Quality: QualitySettings{
			Definitions:    defaultDefinitions(),
			Profiles:       defaultProfiles(),
			DefaultProfile: "HD-1080p",
			CustomFormats:  []models.CustomFormat{},
		},
		DelayProfile: models.DelayProfile{
			PreferredProtocol: models.ProtocolUsenet,
			EnableUsenet:      true,
			EnableTorrent:     true,
		},
		Decision: DecisionSettings{
			SearchTimeoutSeconds:  60,
			IndexerTimeoutSeconds: 30,
			EvaluationWorkers:     8,
			RequiredTerms:         []string{},
			FilterOutTerms:        []string{},
		},
		Tracking: TrackingSettings{
			PollIntervalSeconds: 60,
			BlocklistOnFailure:  true,
			AutoResearch:        true,
			ParallelPolls:       4,
		},
	}
}

func defaultProfiles() []models.QualityProfile {
	return []models.QualityProfile{
		{
			Name:           "HD-1080p",
			Items:          []string{"HDTV-720p", "WEBRip-720p", "WEBDL-720p", "Bluray-720p", "HDTV-1080p", "WEBRip-1080p", "WEBDL-1080p", "Bluray-1080p"},
			Cutoff:         "Bluray-1080p",
			UpgradeAllowed: true,
		},
		{
			Name:           "Ultra-HD",
			Items:          []string{"WEBRip-2160p", "WEBDL-2160p", "Bluray-2160p", "Remux-2160p"},
			Cutoff:         "Remux-2160p",
			UpgradeAllowed: true,
		},
		{
			Name:           "Lossless",
			Items:          []string{"MP3-192", "MP3-256", "MP3-VBR-V0", "MP3-320", "FLAC", "FLAC 24bit"},
			Cutoff:         "FLAC",
			UpgradeAllowed: true,
		},
		{
			Name:   "Ebook",
			Items:  []string{"PDF", "MOBI", "AZW3", "EPUB"},
			Cutoff: "EPUB",
		},
	}
}

// defaultDefinitions bounds video sizes in MB per minute of runtime. Audio
// and book qualities are left unbounded.
func defaultDefinitions() []models.QualityDefinition {
	return []models.QualityDefinition{
		{Quality: "SDTV", MinSize: 2, MaxSize: 100},
		{Quality: "DVD", MinSize: 2, MaxSize: 100},
		{Quality: "HDTV-720p", MinSize: 10, MaxSize: 137},
		{Quality: "WEBDL-720p", MinSize: 10, MaxSize: 137},
		{Quality: "WEBRip-720p", MinSize: 10, MaxSize: 137},
		{Quality: "Bluray-720p", MinSize: 17, MaxSize: 137},
		{Quality: "HDTV-1080p", MinSize: 15, MaxSize: 137},
		{Quality: "WEBDL-1080p", MinSize: 15, MaxSize: 137},
		{Quality: "WEBRip-1080p", MinSize: 15, MaxSize: 137},
		{Quality: "Bluray-1080p", MinSize: 20, MaxSize: 155},
		{Quality: "Remux-1080p", MinSize: 69, MaxSize: 0},
		{Quality: "WEBDL-2160p", MinSize: 25, MaxSize: 0},
		{Quality: "Bluray-2160p", MinSize: 45, MaxSize: 0},
		{Quality: "Remux-2160p", MinSize: 187, MaxSize: 0},
	}
}

// Validate reports configuration problems that make searches impossible.
func (s Settings) Validate() error {
	var errs []error
	if len(s.Quality.Profiles) == 0 {
		errs = append(errs, errors.New("no quality profiles configured"))
	}
	if _, ok := s.Quality.Profile(""); !ok {
		errs = append(errs, fmt.Errorf("default quality profile %q not found", s.Quality.DefaultProfile))
	}
	for _, p := range s.Quality.Profiles {
		if len(p.Items) == 0 {
			errs = append(errs, fmt.Errorf("quality profile %q has no qualities", p.Name))
		}
	}
	seen := make(map[string]bool)
	for _, idx := range s.Indexers {
		id := strings.ToLower(strings.TrimSpace(idx.ID))
		if id == "" {
			errs = append(errs, fmt.Errorf("indexer %q has no id", idx.Name))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate indexer id %q", idx.ID))
		}
		seen[id] = true
		if models.ParseProtocol(idx.Protocol) == models.ProtocolUnknown {
			errs = append(errs, fmt.Errorf("indexer %q has unknown protocol %q", idx.ID, idx.Protocol))
		}
	}
	return errors.Join(errs...)
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewManager(configPath string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), configPath)
}

// NewManagerWithFs is NewManager over an arbitrary filesystem.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads the settings file or creates it with defaults if missing.
// Fields absent from the file keep their default values.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		defaults := DefaultSettings()
		if err := m.save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", m.path, err)
	}
	normalize(&s)
	return s, nil
}

// normalize replaces zero values that would stall the service.
func normalize(s *Settings) {
	defaults := DefaultSettings()
	if s.Server.Port <= 0 {
		s.Server.Port = defaults.Server.Port
	}
	if strings.TrimSpace(s.Database.Driver) == "" {
		s.Database.Driver = defaults.Database.Driver
	}
	if s.Decision.SearchTimeoutSeconds <= 0 {
		s.Decision.SearchTimeoutSeconds = defaults.Decision.SearchTimeoutSeconds
	}
	if s.Decision.IndexerTimeoutSeconds <= 0 {
		s.Decision.IndexerTimeoutSeconds = defaults.Decision.IndexerTimeoutSeconds
	}
	if s.Decision.EvaluationWorkers <= 0 {
		s.Decision.EvaluationWorkers = defaults.Decision.EvaluationWorkers
	}
	if s.Tracking.PollIntervalSeconds <= 0 {
		s.Tracking.PollIntervalSeconds = defaults.Tracking.PollIntervalSeconds
	}
	if s.Tracking.ParallelPolls <= 0 {
		s.Tracking.ParallelPolls = defaults.Tracking.ParallelPolls
	}
	if s.DownloadClient.RetryAttempts == 0 {
		s.DownloadClient.RetryAttempts = defaults.DownloadClient.RetryAttempts
	}
	for i := range s.Indexers {
		if s.Indexers[i].Type == "" {
			s.Indexers[i].Type = IndexerTypeFolder
		}
		if s.Indexers[i].Priority <= 0 {
			s.Indexers[i].Priority = 25
		}
	}
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(s)
}

func (m *Manager) save(s Settings) error {
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := m.fs.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(tmp)
		return err
	}
	return m.fs.Rename(tmp, m.path)
}
