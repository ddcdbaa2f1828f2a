package decision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"
	"novagrab/services/augment"
	"novagrab/services/history"
	"novagrab/utils/parser"

	"github.com/sourcegraph/conc/iter"
)

// ErrNoQualityProfile is returned when the criteria's profile (or the
// default profile) does not exist. It fails only the current call.
var ErrNoQualityProfile = errors.New("no quality profile resolvable")

type settingsProvider interface {
	Load() (config.Settings, error)
}

type releaseSearcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.RawRelease, error)
}

type entityResolver interface {
	Resolve(title string, year int) (*models.LibraryEntity, bool)
}

type historySnapshotter interface {
	Snapshot(ctx context.Context, entityID string) (*history.Snapshot, error)
}

// Service runs search cycles: fetch, parse, resolve, evaluate and rank.
type Service struct {
	cfg         settingsProvider
	qualities   *models.QualityTable
	parser      *parser.Parser
	augment     *augment.Pipeline
	chain       *Chain
	importChain *Chain
	indexers    releaseSearcher
	library     entityResolver
	history     historySnapshotter
	clock       clock.Clock
}

func NewService(cfg settingsProvider, qualities *models.QualityTable, indexers releaseSearcher, library entityResolver, hist historySnapshotter) *Service {
	if qualities == nil {
		qualities = models.DefaultQualities()
	}
	return &Service{
		cfg:         cfg,
		qualities:   qualities,
		parser:      parser.New(qualities),
		augment:     augment.Default(qualities),
		chain:       DefaultChain(),
		importChain: ImportChain(),
		indexers:    indexers,
		library:     library,
		history:     hist,
		clock:       clock.Real(),
	}
}

// SetChain replaces the search chain.
func (s *Service) SetChain(ch *Chain) {
	s.chain = ch
}

func (s *Service) SetClock(c clock.Clock) {
	s.clock = c
}

// Decide searches every indexer for criteria and returns all candidates:
// accepted ones first in priority order, then rejected ones in indexer
// response order. A cancelled context yields ctx.Err() and no candidates.
func (s *Service) Decide(ctx context.Context, criteria models.SearchCriteria) ([]models.Candidate, error) {
	if s.indexers == nil {
		return nil, errors.New("no release searcher configured")
	}
	releases, err := s.indexers.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.DecideReleases(ctx, criteria, releases)
}

// DecideReleases evaluates releases that were already fetched.
func (s *Service) DecideReleases(ctx context.Context, criteria models.SearchCriteria, releases []models.RawRelease) ([]models.Candidate, error) {
	settings, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	in, err := s.buildInput(ctx, settings, criteria)
	if err != nil {
		return nil, err
	}

	evaluated := make([]models.Candidate, len(releases))
	it := iter.Iterator[models.RawRelease]{MaxGoroutines: settings.Decision.EvaluationWorkers}
	it.ForEachIdx(releases, func(i int, raw *models.RawRelease) {
		if ctx.Err() != nil {
			return
		}
		evaluated[i] = s.evaluate(*raw, in)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accepted := make([]models.Candidate, 0, len(evaluated))
	rejected := make([]models.Candidate, 0)
	for _, c := range evaluated {
		if c.Accepted() {
			accepted = append(accepted, c)
		} else {
			rejected = append(rejected, c)
		}
	}
	NewPrioritizer(in.Profile, in.Delay.PreferredProtocol, settings.Decision.SeedingHealthTiebreak).Sort(accepted)

	log.Printf("[decision] %q: %d releases, %d accepted, %d rejected",
		criteria.Entity.Title, len(releases), len(accepted), len(rejected))
	return append(accepted, rejected...), nil
}

// ImportCheck re-evaluates a completed download before import. The name of
// the downloaded payload is parsed again and refined with the grab history
// of the download and any extra signals. When the payload name resolves to
// no library entity, the entity linked at grab time is used.
func (s *Service) ImportCheck(ctx context.Context, td models.TrackedDownload, signals ...augment.Signal) (models.Candidate, error) {
	settings, err := s.cfg.Load()
	if err != nil {
		return models.Candidate{}, fmt.Errorf("load settings: %w", err)
	}
	in, err := s.buildInput(ctx, settings, td.Criteria)
	if err != nil {
		return models.Candidate{}, err
	}

	title := td.Candidate.Release.Title
	if td.OutputPath != "" {
		title = filepath.Base(td.OutputPath)
	}
	parsed := s.parser.Parse(title)
	if in.History != nil {
		var grabs []models.HistoryRecord
		for _, rec := range in.History.History(td.Criteria.Entity.ID) {
			if rec.DownloadID == td.ID {
				grabs = append(grabs, rec)
			}
		}
		signals = append(signals, augment.HistorySignal{Records: grabs})
	}
	parsed = s.augment.Apply(parsed, signals...)

	entity := s.resolve(parsed)
	if entity == nil {
		entity = linkedEntity(td)
	}
	c := models.Candidate{Release: td.Candidate.Release, Parsed: parsed, Entity: entity}
	c = annotate(c, in)
	return s.importChain.Evaluate(c, in), nil
}

// linkedEntity returns the entity the download was grabbed for. Payload
// names that resolve to nothing, such as obfuscated usenet posts, fall back
// to it.
func linkedEntity(td models.TrackedDownload) *models.LibraryEntity {
	if e := td.Candidate.Entity; e != nil && e.ID != "" && (td.Criteria.Entity.ID == "" || e.ID == td.Criteria.Entity.ID) {
		linked := *e
		return &linked
	}
	if td.Criteria.Entity.ID != "" {
		linked := td.Criteria.Entity
		return &linked
	}
	return nil
}

func (s *Service) evaluate(raw models.RawRelease, in *Input) models.Candidate {
	parsed := s.parser.Parse(raw.Title)
	c := models.Candidate{Release: raw, Parsed: parsed, Entity: s.resolve(parsed)}
	c = annotate(c, in)
	return s.chain.Evaluate(c, in)
}

func (s *Service) resolve(parsed models.ParsedReleaseInfo) *models.LibraryEntity {
	if s.library == nil {
		return nil
	}
	if entity, ok := s.library.Resolve(parsed.Title, parsed.Year); ok {
		return entity
	}
	if parsed.Album != "" {
		if entity, ok := s.library.Resolve(parsed.Album, parsed.Year); ok {
			return entity
		}
	}
	return nil
}

func (s *Service) buildInput(ctx context.Context, settings config.Settings, criteria models.SearchCriteria) (*Input, error) {
	profile, ok := settings.Quality.Profile(criteria.Entity.QualityProfile)
	if !ok {
		name := strings.TrimSpace(criteria.Entity.QualityProfile)
		if name == "" {
			name = settings.Quality.DefaultProfile
		}
		return nil, fmt.Errorf("%w: %q", ErrNoQualityProfile, name)
	}
	required, err := CompileTerms(settings.Decision.RequiredTerms)
	if err != nil {
		return nil, fmt.Errorf("required terms: %w", err)
	}
	forbidden, err := CompileTerms(settings.Decision.FilterOutTerms)
	if err != nil {
		return nil, fmt.Errorf("filter-out terms: %w", err)
	}
	formats, err := CompileFormats(settings.Quality.CustomFormats)
	if err != nil {
		return nil, err
	}

	in := &Input{
		Criteria:    criteria,
		Profile:     profile,
		Definitions: settings.Quality.Definitions,
		Delay:       settings.DelayProfile,
		Indexers:    indexerMap(settings.Indexers),
		Required:    required,
		Forbidden:   forbidden,
		Formats:     formats,
		Qualities:   s.qualities,
		Now:         s.clock.Now(),
	}
	if s.history != nil && criteria.Entity.ID != "" {
		snap, err := s.history.Snapshot(ctx, criteria.Entity.ID)
		if err != nil {
			return nil, fmt.Errorf("history snapshot: %w", err)
		}
		in.History = snap
	}
	return in, nil
}
