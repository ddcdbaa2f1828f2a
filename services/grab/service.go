// Package grab hands accepted releases to the download client and starts
// tracking them.
package grab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"novagrab/internal/clock"
	"novagrab/models"
	"novagrab/services/tracking"
)

var (
	ErrNotAccepted        = errors.New("release was rejected")
	ErrNoAcceptedRelease  = errors.New("no acceptable release found")
	ErrEntityNotFound     = errors.New("library entity not found")
	ErrClientNotAvailable = errors.New("download client not configured")
	ErrBlocklisted        = errors.New("release is blocklisted")
	// ErrReleasesPending means every rejected release is only held back for
	// now, for example by the delay profile.
	ErrReleasesPending = fmt.Errorf("%w: releases are held back temporarily", ErrNoAcceptedRelease)
)

type decider interface {
	Decide(ctx context.Context, criteria models.SearchCriteria) ([]models.Candidate, error)
}

type downloadClient interface {
	Name() string
	Add(ctx context.Context, c models.Candidate) (string, error)
}

type historyLedger interface {
	Append(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error)
	IsBlocklisted(ctx context.Context, entityID string, release models.RawRelease) (bool, error)
}

type downloadTracker interface {
	Track(td models.TrackedDownload) (models.TrackedDownload, error)
}

type entityLookup interface {
	Get(id string) (models.LibraryEntity, bool)
}

// Service grabs releases.
type Service struct {
	decider decider
	client  downloadClient
	ledger  historyLedger
	tracker downloadTracker
	library entityLookup
	clock   clock.Clock
}

func NewService(decider decider, client downloadClient, ledger historyLedger, tracker downloadTracker, library entityLookup) *Service {
	return &Service{
		decider: decider,
		client:  client,
		ledger:  ledger,
		tracker: tracker,
		library: library,
		clock:   clock.Real(),
	}
}

// SetClock replaces the clock used to stamp grabs.
func (s *Service) SetClock(c clock.Clock) {
	s.clock = c
}

// Grab sends an accepted candidate to the download client, records the grab
// and starts tracking the download.
func (s *Service) Grab(ctx context.Context, c models.Candidate, criteria models.SearchCriteria) (models.TrackedDownload, error) {
	if s.client == nil {
		return models.TrackedDownload{}, ErrClientNotAvailable
	}
	if !c.Accepted() {
		return models.TrackedDownload{}, fmt.Errorf("%w: %s", ErrNotAccepted, c.Release.Title)
	}
	if criteria.Entity.ID == "" && c.Entity != nil {
		criteria.Entity = *c.Entity
	}
	// Candidates may come from a decision list older than the blocklist.
	if s.ledger != nil && criteria.Entity.ID != "" {
		blocked, err := s.ledger.IsBlocklisted(ctx, criteria.Entity.ID, c.Release)
		if err != nil {
			return models.TrackedDownload{}, fmt.Errorf("check blocklist: %w", err)
		}
		if blocked {
			return models.TrackedDownload{}, fmt.Errorf("%w: %s", ErrBlocklisted, c.Release.Title)
		}
	}

	id, err := s.client.Add(ctx, c)
	if err != nil {
		return models.TrackedDownload{}, fmt.Errorf("send %q to %s: %w", c.Release.Title, s.client.Name(), err)
	}

	td := models.TrackedDownload{
		ID:        id,
		Client:    s.client.Name(),
		Candidate: c,
		Criteria:  criteria,
		GrabbedAt: s.clock.Now().UTC(),
	}
	if s.ledger != nil {
		if _, err := s.ledger.Append(ctx, tracking.GrabbedRecord(td)); err != nil {
			log.Printf("[grab] failed to record grab of %q: %v", c.Release.Title, err)
		}
	}
	tracked, err := s.tracker.Track(td)
	if err != nil {
		return models.TrackedDownload{}, fmt.Errorf("track %s: %w", id, err)
	}
	log.Printf("[grab] grabbed %q (%s) from %s for %q", c.Release.Title, c.Parsed.Quality, c.Release.Indexer, criteria.Entity.Title)
	return tracked, nil
}

// SearchAndGrab runs a search and grabs the best accepted release. The full
// decision list is returned as well, also when nothing was grabbed.
func (s *Service) SearchAndGrab(ctx context.Context, criteria models.SearchCriteria) (models.TrackedDownload, []models.Candidate, error) {
	criteria, err := s.hydrate(criteria)
	if err != nil {
		return models.TrackedDownload{}, nil, err
	}
	candidates, err := s.decider.Decide(ctx, criteria)
	if err != nil {
		return models.TrackedDownload{}, nil, err
	}
	pending := 0
	for _, c := range candidates {
		if c.TemporarilyRejected() {
			pending++
		}
		if !c.Accepted() {
			continue
		}
		td, err := s.Grab(ctx, c, criteria)
		return td, candidates, err
	}
	if pending > 0 {
		return models.TrackedDownload{}, candidates, fmt.Errorf("%w: %d for %q", ErrReleasesPending, pending, criteria.Entity.Title)
	}
	return models.TrackedDownload{}, candidates, fmt.Errorf("%w for %q", ErrNoAcceptedRelease, criteria.Entity.Title)
}

// Research looks for a replacement of a failed download. Finding nothing is
// not an error.
func (s *Service) Research(ctx context.Context, criteria models.SearchCriteria) error {
	td, _, err := s.SearchAndGrab(ctx, criteria)
	if errors.Is(err, ErrReleasesPending) {
		log.Printf("[grab] replacements for %q are held back, a later search will pick them up", criteria.Entity.Title)
		return nil
	}
	if errors.Is(err, ErrNoAcceptedRelease) {
		log.Printf("[grab] no replacement found for %q", criteria.Entity.Title)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[grab] replaced failed download of %q with %q", criteria.Entity.Title, td.Candidate.Release.Title)
	return nil
}

// hydrate fills the entity from the library when only its id is known.
func (s *Service) hydrate(criteria models.SearchCriteria) (models.SearchCriteria, error) {
	id := strings.TrimSpace(criteria.Entity.ID)
	if id == "" || s.library == nil {
		return criteria, nil
	}
	entity, ok := s.library.Get(id)
	if !ok {
		if criteria.Entity.Title != "" {
			return criteria, nil
		}
		return criteria, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	criteria.Entity = entity
	return criteria, nil
}
