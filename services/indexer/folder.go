package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"novagrab/config"
	"novagrab/internal/mediaresolve"
	"novagrab/models"
	"novagrab/utils/similarity"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// folderNamespace seeds the stable guids of folder releases.
var folderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("novagrab:folder"))

// FolderSource exposes a manual import folder as an indexer. Every media
// file directly inside the folder, and every sub-directory holding at least
// one media file, is a release.
type FolderSource struct {
	fs       afero.Fs
	id       string
	name     string
	root     string
	protocol models.Protocol
}

func NewFolderSource(fsys afero.Fs, cfg config.IndexerConfig) *FolderSource {
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}
	protocol := models.ParseProtocol(cfg.Protocol)
	if protocol == models.ProtocolUnknown {
		protocol = models.ProtocolUsenet
	}
	return &FolderSource{fs: fsys, id: cfg.ID, name: name, root: cfg.Path, protocol: protocol}
}

func (f *FolderSource) ID() string                { return f.id }
func (f *FolderSource) Name() string              { return f.name }
func (f *FolderSource) Protocol() models.Protocol { return f.protocol }

// Search lists releases whose name contains the entity title or one of its
// alternate titles. An empty entity title lists everything.
func (f *FolderSource) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.RawRelease, error) {
	entries, err := afero.ReadDir(f.fs, f.root)
	if err != nil {
		return nil, fmt.Errorf("read import folder %s: %w", f.root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	wanted := wantedNames(criteria.Entity)
	var releases []models.RawRelease
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(entry.Name(), ".") || !matchesAny(entry.Name(), wanted) {
			continue
		}
		path := filepath.Join(f.root, entry.Name())
		size, ok := f.mediaSize(path, entry)
		if !ok {
			continue
		}
		releases = append(releases, models.RawRelease{
			Title:       entry.Name(),
			GUID:        uuid.NewSHA1(folderNamespace, []byte(path)).String(),
			IndexerID:   f.id,
			Indexer:     f.name,
			Protocol:    f.protocol,
			SizeBytes:   size,
			DownloadURL: "file://" + filepath.ToSlash(path),
			PublishDate: entry.ModTime().UTC(),
		})
	}
	return releases, nil
}

// mediaSize returns the size of a media file, or the total size of a
// directory that contains media.
func (f *FolderSource) mediaSize(path string, info os.FileInfo) (int64, bool) {
	if !info.IsDir() {
		return info.Size(), f.isMedia(path)
	}
	var (
		total    int64
		hasMedia bool
	)
	err := afero.Walk(f.fs, path, func(p string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		total += fi.Size()
		if !hasMedia && f.isMedia(p) {
			hasMedia = true
		}
		return nil
	})
	if err != nil {
		log.Printf("[indexer] skipping %s: %v", path, err)
		return 0, false
	}
	return total, hasMedia
}

// isMedia accepts link files for another client alongside sniffed media.
func (f *FolderSource) isMedia(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nzb", ".torrent":
		return true
	}
	return mediaresolve.IsMediaFile(f.fs, path)
}

func wantedNames(entity models.LibraryEntity) []string {
	var out []string
	for _, name := range append([]string{entity.Title}, entity.AlternateTitles...) {
		if n := similarity.Normalize(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func matchesAny(name string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	n := similarity.Normalize(name)
	for _, w := range wanted {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

// FromSettings builds the indexers described by the settings.
func FromSettings(fsys afero.Fs, configs []config.IndexerConfig) []Indexer {
	var out []Indexer
	for _, cfg := range configs {
		switch cfg.Type {
		case config.IndexerTypeFolder:
			out = append(out, NewFolderSource(fsys, cfg))
		default:
			log.Printf("[indexer] unsupported indexer type %q for %q", cfg.Type, cfg.ID)
		}
	}
	return out
}
