package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"
	"novagrab/services/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct {
	settings config.Settings
	err      error
}

func (s staticSettings) Load() (config.Settings, error) { return s.settings, s.err }

type fakeSearcher struct {
	releases []models.RawRelease
	calls    int
}

func (f *fakeSearcher) Search(context.Context, models.SearchCriteria) ([]models.RawRelease, error) {
	f.calls++
	return append([]models.RawRelease(nil), f.releases...), nil
}

type fakeLibrary []models.LibraryEntity

func (f fakeLibrary) Resolve(title string, year int) (*models.LibraryEntity, bool) {
	for _, e := range f {
		if strings.EqualFold(e.Title, title) && (year == 0 || e.Year == year) {
			e := e
			return &e, true
		}
	}
	return nil, false
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.Quality.Definitions = nil
	s.Indexers = []config.IndexerConfig{{ID: "idx", Name: "Indexer", Protocol: "usenet", Enabled: true}}
	return s
}

func release(title, guid string, size int64) models.RawRelease {
	return models.RawRelease{Title: title, GUID: guid, IndexerID: "idx", Protocol: models.ProtocolUsenet, SizeBytes: size}
}

func newTestService(t *testing.T, settings config.Settings, store history.Store, releases ...models.RawRelease) (*Service, *fakeSearcher) {
	t.Helper()
	searcher := &fakeSearcher{releases: releases}
	svc := NewService(staticSettings{settings: settings}, table, searcher, fakeLibrary{movie}, store)
	svc.SetClock(clock.NewFake(now))
	return svc, searcher
}

func TestDecideOrdersAcceptedThenRejected(t *testing.T) {
	svc, searcher := newTestService(t, testSettings(), history.NewMemoryStore(),
		release("Other.Movie.2001.1080p.BluRay.x264-GRP", "g0", 1<<30),
		release("The.Matrix.1999.1080p.BluRay.x264-BIG", "g1", 3400<<20),
		release("The.Matrix.1999.1080p.BluRay.x264-SMALL", "g2", 1200<<20),
		release("The.Matrix.1999.2160p.BluRay.x265-UHD", "g3", 20<<30),
		release("The.Matrix.1999.720p.BluRay.x264-LOW", "g4", 900<<20),
	)
	got, err := svc.Decide(context.Background(), models.SearchCriteria{Entity: movie})
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)

	assert.Equal(t, []string{"g2", "g1", "g4", "g0", "g3"}, guids(got))
	assert.True(t, got[0].Accepted())
	assert.Equal(t, "SMALL", got[0].Parsed.ReleaseGroup)
	assert.True(t, got[2].Accepted())
	assert.True(t, got[3].HasRejection(ReasonUnknownEntity))
	assert.Len(t, got[3].Rejections, 1, "fail-fast stops after an unresolved entity")
	assert.True(t, got[4].HasRejection(ReasonQualityNotWanted))
}

func TestDecideIsDeterministic(t *testing.T) {
	var releases []models.RawRelease
	for i, group := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		releases = append(releases, release("The.Matrix.1999.1080p.BluRay.x264-"+group, "g"+group, int64(1+i%2)<<30))
	}
	svc, _ := newTestService(t, testSettings(), history.NewMemoryStore(), releases...)

	first, err := svc.Decide(context.Background(), models.SearchCriteria{Entity: movie})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.Decide(context.Background(), models.SearchCriteria{Entity: movie})
		require.NoError(t, err)
		assert.Equal(t, guids(first), guids(again))
	}
	assert.Equal(t, []string{"gA", "gC", "gE", "gG", "gB", "gD", "gF", "gH"}, guids(first))
}

func TestBlocklistedReleaseNeverAcceptedAgain(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	svc, _ := newTestService(t, testSettings(), store,
		release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30),
		release("The.Matrix.1999.1080p.BluRay.x264-TWO", "g2", 2<<30),
	)
	criteria := models.SearchCriteria{Entity: movie}

	got, err := svc.Decide(ctx, criteria)
	require.NoError(t, err)
	require.True(t, got[0].Accepted())
	require.Equal(t, "g1", got[0].Release.GUID)

	_, err = store.AddBlocklist(ctx, models.BlocklistEntry{EntityID: movie.ID, GUID: "g1", IndexerID: "idx", Message: "failed"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err = svc.Decide(ctx, criteria)
		require.NoError(t, err)
		for _, c := range got {
			if c.Release.GUID == "g1" {
				assert.False(t, c.Accepted())
				assert.True(t, c.HasRejection(ReasonBlocklisted))
			}
		}
		assert.Equal(t, "g2", got[0].Release.GUID)
	}
}

func TestDecideCancelledReturnsNothing(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), nil, release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.Decide(ctx, models.SearchCriteria{Entity: movie})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestDecideConfigurationErrors(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), nil, release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30))
	missing := movie
	missing.QualityProfile = "Does Not Exist"
	_, err := svc.Decide(context.Background(), models.SearchCriteria{Entity: missing})
	assert.ErrorIs(t, err, ErrNoQualityProfile)

	bad := testSettings()
	bad.Decision.FilterOutTerms = []string{"/[/"}
	svc, _ = newTestService(t, bad, nil)
	_, err = svc.DecideReleases(context.Background(), models.SearchCriteria{Entity: movie}, nil)
	assert.Error(t, err)

	svc = NewService(staticSettings{err: errors.New("disk gone")}, nil, nil, nil, nil)
	_, err = svc.DecideReleases(context.Background(), models.SearchCriteria{Entity: movie}, nil)
	assert.Error(t, err)
}

func TestDecideIsolatesPanickingSpec(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), nil, release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30))
	svc.SetChain(NewChain(append(DefaultSpecs(), panickingSpec{})...))

	got, err := svc.Decide(context.Background(), models.SearchCriteria{Entity: movie})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].HasRejection(ReasonSpecFault))
	assert.Len(t, got[0].Rejections, 1)
}

func TestImportCheck(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), history.NewMemoryStore())
	td := models.TrackedDownload{
		ID:       "d1",
		Criteria: models.SearchCriteria{Entity: movie},
		Candidate: models.Candidate{
			Release: release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30),
		},
		OutputPath: "/downloads/complete/The.Matrix.1999.1080p.BluRay.x264-ONE",
	}
	c, err := svc.ImportCheck(context.Background(), td)
	require.NoError(t, err)
	assert.True(t, c.Accepted(), "%v", c.Rejections)
	require.NotNil(t, c.Entity)
	assert.Equal(t, movie.ID, c.Entity.ID)

	td.OutputPath = "/downloads/complete/Some.Other.Film.2003.1080p.BluRay.x264-ONE.mkv"
	td.Criteria = models.SearchCriteria{}
	c, err = svc.ImportCheck(context.Background(), td)
	require.NoError(t, err)
	assert.True(t, c.HasRejection(ReasonUnknownEntity))
}

func TestImportCheckFallsBackToGrabbedEntity(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), history.NewMemoryStore())
	linked := movie
	td := models.TrackedDownload{
		ID:       "d1",
		Criteria: models.SearchCriteria{Entity: movie},
		Candidate: models.Candidate{
			Release: release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30),
			Entity:  &linked,
		},
		OutputPath: "/downloads/complete/a8f3c2d19e.mkv",
	}
	c, err := svc.ImportCheck(context.Background(), td)
	require.NoError(t, err)
	require.NotNil(t, c.Entity)
	assert.Equal(t, movie.ID, c.Entity.ID)
	assert.False(t, c.HasRejection(ReasonUnknownEntity), "%v", c.Rejections)

	td.Candidate.Entity = nil
	c, err = svc.ImportCheck(context.Background(), td)
	require.NoError(t, err)
	require.NotNil(t, c.Entity)
	assert.Equal(t, movie.ID, c.Entity.ID)
}

func TestImportCheckBlocksPayloadForOtherEntity(t *testing.T) {
	other := models.LibraryEntity{ID: "m2", Kind: models.EntityKindMovie, Title: "Some Other Film", Year: 2003, Monitored: true}
	svc := NewService(staticSettings{settings: testSettings()}, table, &fakeSearcher{}, fakeLibrary{movie, other}, history.NewMemoryStore())
	svc.SetClock(clock.NewFake(now))
	linked := movie
	td := models.TrackedDownload{
		ID:       "d1",
		Criteria: models.SearchCriteria{Entity: movie},
		Candidate: models.Candidate{
			Release: release("The.Matrix.1999.1080p.BluRay.x264-ONE", "g1", 1<<30),
			Entity:  &linked,
		},
		OutputPath: "/downloads/complete/Some.Other.Film.2003.1080p.BluRay.x264-ONE.mkv",
	}
	c, err := svc.ImportCheck(context.Background(), td)
	require.NoError(t, err)
	require.NotNil(t, c.Entity)
	assert.Equal(t, other.ID, c.Entity.ID)
	assert.True(t, c.HasRejection(ReasonWrongEntity))
}
