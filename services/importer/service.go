// Package importer moves completed downloads into the library once they pass
// the import checks.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"novagrab/internal/mediaresolve"
	"novagrab/models"
	"novagrab/services/augment"
	"novagrab/services/tracking"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

type importChecker interface {
	ImportCheck(ctx context.Context, td models.TrackedDownload, signals ...augment.Signal) (models.Candidate, error)
}

type mediaReader interface {
	MediaInfo(ctx context.Context, path string) (augment.MediaInfoSignal, error)
}

type qualityRecorder interface {
	UpdateQuality(id string, quality models.QualityModel) error
}

// Service implements tracking.Importer on top of a filesystem.
type Service struct {
	fs      afero.Fs
	checker importChecker
	library qualityRecorder
	media   mediaReader
}

func NewService(fsys afero.Fs, checker importChecker, library qualityRecorder) *Service {
	return &Service{fs: fsys, checker: checker, library: library}
}

// SetMediaReader enables stream metadata for the import check.
func (s *Service) SetMediaReader(m mediaReader) {
	s.media = m
}

// Import re-checks the payload, moves it into the entity's library folder
// when one is set and records the imported quality on the entity. A
// directory payload must hold a media file matching the grabbed episode.
func (s *Service) Import(ctx context.Context, td models.TrackedDownload) (models.QualityModel, error) {
	if strings.TrimSpace(td.OutputPath) == "" {
		return models.QualityModel{}, fmt.Errorf("%w: download client reported no output path", tracking.ErrImportRejected)
	}
	info, err := s.fs.Stat(td.OutputPath)
	if errors.Is(err, os.ErrNotExist) {
		return models.QualityModel{}, fmt.Errorf("%w: %s does not exist", tracking.ErrImportRejected, td.OutputPath)
	}
	if err != nil {
		return models.QualityModel{}, fmt.Errorf("stat %s: %w", td.OutputPath, err)
	}

	size, mediaPath := info.Size(), td.OutputPath
	if info.IsDir() {
		primary, err := s.primaryFile(td)
		if err != nil {
			return models.QualityModel{}, err
		}
		size, mediaPath = primary.Size, primary.Path
	}

	c, err := s.checker.ImportCheck(ctx, td, s.mediaSignals(ctx, td, mediaPath)...)
	if err != nil {
		return models.QualityModel{}, fmt.Errorf("import check: %w", err)
	}
	if c.Entity == nil {
		return models.QualityModel{}, fmt.Errorf("%w: no library entity matches %q", tracking.ErrImportRejected, c.Parsed.Title)
	}
	if !c.Accepted() {
		reasons := make([]string, 0, len(c.Rejections))
		for _, r := range c.Rejections {
			if r.Detail != "" {
				reasons = append(reasons, r.Reason+" ("+r.Detail+")")
			} else {
				reasons = append(reasons, r.Reason)
			}
		}
		return models.QualityModel{}, fmt.Errorf("%w: %s", tracking.ErrImportRejected, strings.Join(reasons, "; "))
	}

	dest := td.OutputPath
	if root := strings.TrimSpace(c.Entity.Path); root != "" {
		dest = filepath.Join(root, filepath.Base(td.OutputPath))
		if err := s.move(td.OutputPath, dest); err != nil {
			return models.QualityModel{}, err
		}
	}

	quality := c.Parsed.Quality
	if s.library != nil {
		if err := s.library.UpdateQuality(c.Entity.ID, quality); err != nil {
			return models.QualityModel{}, fmt.Errorf("record quality of %s: %w", c.Entity.ID, err)
		}
	}
	log.Printf("[importer] imported %q into %s as %s (%s)", c.Entity.Title, dest, quality, humanize.IBytes(uint64(max(size, 0))))
	return quality, nil
}

func (s *Service) mediaSignals(ctx context.Context, td models.TrackedDownload, path string) []augment.Signal {
	if s.media == nil {
		return nil
	}
	sig, err := s.media.MediaInfo(ctx, path)
	if errors.Is(err, ErrFFprobeDisabled) {
		return nil
	}
	if err != nil {
		log.Printf("[importer] %s: reading media info of %s failed, importing without it: %v", td.ID, path, err)
		return nil
	}
	return []augment.Signal{sig}
}

// primaryFile finds the media file a directory payload was grabbed for.
func (s *Service) primaryFile(td models.TrackedDownload) (mediaresolve.File, error) {
	var files []mediaresolve.File
	err := afero.Walk(s.fs, td.OutputPath, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !mediaresolve.IsMediaFile(s.fs, p) {
			return nil
		}
		files = append(files, mediaresolve.File{Path: p, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return mediaresolve.File{}, fmt.Errorf("scan %s: %w", td.OutputPath, err)
	}

	hints := mediaresolve.Hints{
		ReleaseTitle:    td.Candidate.Release.Title,
		Season:          td.Criteria.Season,
		Episodes:        td.Criteria.Episodes,
		AbsoluteEpisode: td.Candidate.Parsed.AbsoluteEpisode,
	}
	idx, reason := mediaresolve.Select(files, hints)
	if idx < 0 {
		return mediaresolve.File{}, fmt.Errorf("%w: %s in %s", tracking.ErrImportRejected, reason, td.OutputPath)
	}
	log.Printf("[importer] %s: using %s (%s)", td.ID, files[idx].Path, reason)
	return files[idx], nil
}

func (s *Service) move(src, dest string) error {
	if src == dest {
		return nil
	}
	if _, err := s.fs.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s already exists", tracking.ErrImportRejected, dest)
	}
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := s.fs.Rename(src, dest); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dest, err)
	}
	return nil
}
