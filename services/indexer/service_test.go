package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"novagrab/config"
	"novagrab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct{ settings config.Settings }

func (s staticSettings) Load() (config.Settings, error) { return s.settings, nil }

type fakeIndexer struct {
	id       string
	protocol models.Protocol
	releases []models.RawRelease
	err      error
	delay    time.Duration
	ignore   bool // ignore context cancellation
}

func (f *fakeIndexer) ID() string                { return f.id }
func (f *fakeIndexer) Name() string              { return "fake " + f.id }
func (f *fakeIndexer) Protocol() models.Protocol { return f.protocol }

func (f *fakeIndexer) Search(ctx context.Context, _ models.SearchCriteria) ([]models.RawRelease, error) {
	if f.delay > 0 {
		if f.ignore {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return f.releases, f.err
}

func settingsFor(indexers ...config.IndexerConfig) config.Settings {
	s := config.DefaultSettings()
	s.Indexers = indexers
	s.Decision.SearchTimeoutSeconds = 5
	s.Decision.IndexerTimeoutSeconds = 1
	return s
}

func titles(releases []models.RawRelease) []string {
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.Title
	}
	return out
}

func TestSearchMergesByPriority(t *testing.T) {
	svc := NewService(staticSettings{settingsFor(
		config.IndexerConfig{ID: "low", Priority: 50, Enabled: true},
		config.IndexerConfig{ID: "high", Priority: 1, Enabled: true},
		config.IndexerConfig{ID: "disabled", Priority: 1, Enabled: false},
		config.IndexerConfig{ID: "unregistered", Priority: 1, Enabled: true},
	)})
	svc.Register(&fakeIndexer{id: "low", protocol: models.ProtocolTorrent, releases: []models.RawRelease{{Title: "l1", GUID: "1"}, {Title: "l2", GUID: "2"}}})
	svc.Register(&fakeIndexer{id: "High", protocol: models.ProtocolUsenet, releases: []models.RawRelease{{Title: "h1", GUID: "1"}, {Title: "h1-dup", GUID: "1"}}})
	svc.Register(&fakeIndexer{id: "disabled", releases: []models.RawRelease{{Title: "d1"}}})

	got, err := svc.Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "l1", "l2"}, titles(got))
	assert.Equal(t, "High", got[0].IndexerID)
	assert.Equal(t, models.ProtocolUsenet, got[0].Protocol)
	assert.Equal(t, models.ProtocolTorrent, got[1].Protocol)
	assert.Equal(t, "fake low", got[1].Indexer)
}

func TestSearchIsolatesFailures(t *testing.T) {
	svc := NewService(staticSettings{settingsFor(
		config.IndexerConfig{ID: "broken", Priority: 1, Enabled: true},
		config.IndexerConfig{ID: "slow", Priority: 2, Enabled: true},
		config.IndexerConfig{ID: "stuck", Priority: 3, Enabled: true},
		config.IndexerConfig{ID: "ok", Priority: 4, Enabled: true},
	)})
	svc.Register(&fakeIndexer{id: "broken", err: errors.New("connection refused")})
	svc.Register(&fakeIndexer{id: "slow", delay: time.Minute, releases: []models.RawRelease{{Title: "late"}}})
	svc.Register(&fakeIndexer{id: "stuck", delay: 3 * time.Second, ignore: true, releases: []models.RawRelease{{Title: "stuck"}}})
	svc.Register(&fakeIndexer{id: "ok", releases: []models.RawRelease{{Title: "fine"}}})

	start := time.Now()
	got, err := svc.Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fine"}, titles(got))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestSearchCancelledDiscardsResults(t *testing.T) {
	svc := NewService(staticSettings{settingsFor(config.IndexerConfig{ID: "ok", Enabled: true})})
	svc.Register(&fakeIndexer{id: "ok", releases: []models.RawRelease{{Title: "fine"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := svc.Search(ctx, models.SearchCriteria{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestSearchWithoutIndexers(t *testing.T) {
	svc := NewService(staticSettings{settingsFor()})
	got, err := svc.Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// listenerCtx counts the cancellation hooks derived contexts attach to it.
type listenerCtx struct {
	done chan struct{}

	mu       sync.Mutex
	attached int
	released int
}

func (c *listenerCtx) Deadline() (time.Time, bool) { return time.Time{}, false }
func (c *listenerCtx) Done() <-chan struct{}       { return c.done }
func (c *listenerCtx) Err() error                  { return nil }
func (c *listenerCtx) Value(any) any               { return nil }

func (c *listenerCtx) AfterFunc(func()) func() bool {
	c.mu.Lock()
	c.attached++
	c.mu.Unlock()
	return func() bool {
		c.mu.Lock()
		c.released++
		c.mu.Unlock()
		return true
	}
}

func TestSearchReleasesDerivedContexts(t *testing.T) {
	for _, overall := range []int{0, 5} {
		settings := settingsFor(config.IndexerConfig{ID: "ok", Enabled: true})
		settings.Decision.SearchTimeoutSeconds = overall
		svc := NewService(staticSettings{settings})
		svc.Register(&fakeIndexer{id: "ok", releases: []models.RawRelease{{Title: "fine"}}})

		ctx := &listenerCtx{done: make(chan struct{})}
		got, err := svc.Search(ctx, models.SearchCriteria{})
		require.NoError(t, err)
		assert.Equal(t, []string{"fine"}, titles(got))

		ctx.mu.Lock()
		assert.Equal(t, 1, ctx.attached, "overall timeout %ds", overall)
		assert.Equal(t, ctx.attached, ctx.released, "overall timeout %ds", overall)
		ctx.mu.Unlock()
	}
}
