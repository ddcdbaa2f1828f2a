// Package indexer queries release sources in parallel and merges their
// results.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"novagrab/config"
	"novagrab/models"

	"github.com/sourcegraph/conc/pool"
)

// Indexer is one release source.
type Indexer interface {
	ID() string
	Name() string
	Protocol() models.Protocol
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.RawRelease, error)
}

type settingsProvider interface {
	Load() (config.Settings, error)
}

// Service fans a search out to every enabled indexer.
type Service struct {
	cfg settingsProvider

	mu       sync.RWMutex
	indexers map[string]Indexer
}

func NewService(cfg settingsProvider) *Service {
	return &Service{cfg: cfg, indexers: make(map[string]Indexer)}
}

// Register makes an indexer available. Only indexers also enabled in the
// settings are searched.
func (s *Service) Register(idx Indexer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexers[strings.ToLower(idx.ID())] = idx
}

// active returns the enabled, registered indexers ordered by priority.
func (s *Service) active(settings config.Settings) []Indexer {
	configs := make([]config.IndexerConfig, 0, len(settings.Indexers))
	for _, cfg := range settings.Indexers {
		if cfg.Enabled {
			configs = append(configs, cfg)
		}
	}
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].Priority < configs[j].Priority
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Indexer, 0, len(configs))
	for _, cfg := range configs {
		if idx, ok := s.indexers[strings.ToLower(cfg.ID)]; ok {
			out = append(out, idx)
		} else {
			log.Printf("[indexer] %q is enabled but has no implementation registered", cfg.ID)
		}
	}
	return out
}

// Search queries every active indexer in parallel. A failing or slow indexer
// contributes no results; the others are still returned. Results keep each
// indexer's response order, indexers ordered by priority. Cancelling ctx
// discards everything and returns ctx.Err().
func (s *Service) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.RawRelease, error) {
	if s.cfg == nil {
		return nil, errors.New("config manager not configured")
	}
	settings, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	indexers := s.active(settings)
	if len(indexers) == 0 {
		log.Printf("[indexer] no active indexers for %q", criteria.Entity.Title)
		return []models.RawRelease{}, nil
	}

	overall := time.Duration(settings.Decision.SearchTimeoutSeconds) * time.Second
	perIndexer := time.Duration(settings.Decision.IndexerTimeoutSeconds) * time.Second
	var (
		searchCtx context.Context
		cancel    context.CancelFunc
	)
	if overall > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, overall)
	} else {
		searchCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	results := make([][]models.RawRelease, len(indexers))
	p := pool.New().WithMaxGoroutines(len(indexers))
	for i, idx := range indexers {
		p.Go(func() {
			results[i] = searchOne(searchCtx, idx, criteria, perIndexer)
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []models.RawRelease
	for _, r := range results {
		merged = append(merged, r...)
	}
	log.Printf("[indexer] %q: %d releases from %d indexers", criteria.Entity.Title, len(merged), len(indexers))
	return merged, nil
}

type searchResult struct {
	releases []models.RawRelease
	err      error
}

// searchOne returns as soon as the timeout expires, even when the indexer
// ignores its context.
func searchOne(ctx context.Context, idx Indexer, criteria models.SearchCriteria, timeout time.Duration) []models.RawRelease {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan searchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- searchResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		releases, err := idx.Search(ctx, criteria)
		done <- searchResult{releases: releases, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Printf("[indexer] %s unavailable: %v", idx.Name(), res.err)
			return nil
		}
		log.Printf("[indexer] %s returned %d releases in %s", idx.Name(), len(res.releases), time.Since(start).Round(time.Millisecond))
		return stamp(idx, res.releases)
	case <-ctx.Done():
		log.Printf("[indexer] %s gave up after %s: %v", idx.Name(), time.Since(start).Round(time.Millisecond), ctx.Err())
		return nil
	}
}

// stamp fills source fields the indexer left empty and drops duplicate guids.
func stamp(idx Indexer, releases []models.RawRelease) []models.RawRelease {
	seen := make(map[string]bool, len(releases))
	out := make([]models.RawRelease, 0, len(releases))
	for _, r := range releases {
		if r.IndexerID == "" {
			r.IndexerID = idx.ID()
		}
		if r.Indexer == "" {
			r.Indexer = idx.Name()
		}
		if r.Protocol == models.ProtocolUnknown {
			r.Protocol = idx.Protocol()
		}
		if r.GUID != "" {
			if seen[r.GUID] {
				continue
			}
			seen[r.GUID] = true
		}
		out = append(out, r)
	}
	return out
}
