package downloadclient

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct{ settings config.Settings }

func (s staticSettings) Load() (config.Settings, error) { return s.settings, nil }

func newBlackhole(t *testing.T, fsys afero.Fs) *Blackhole {
	t.Helper()
	s := config.DefaultSettings()
	s.DownloadClient = config.DownloadClientSettings{
		Name:          "hole",
		WatchDir:      "watch",
		CompletedDir:  "done",
		RetryAttempts: 2,
	}
	b := NewBlackhole(fsys, staticSettings{s})
	b.SetClock(clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	return b
}

func candidate(title string, protocol models.Protocol, url string) models.Candidate {
	return models.Candidate{Release: models.RawRelease{
		Title:       title,
		GUID:        "guid-" + title,
		Protocol:    protocol,
		SizeBytes:   100,
		DownloadURL: url,
	}}
}

func TestBlackholeLifecycle(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := newBlackhole(t, fsys)
	ctx := context.Background()
	title := "The.Matrix.1999.1080p.BluRay.x264-GRP"

	id, err := b.Add(ctx, candidate(title, models.ProtocolUsenet, "https://indexer/get/1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "hole", b.Name())

	link, err := afero.ReadFile(fsys, filepath.Join("watch", title+".nzb"))
	require.NoError(t, err)
	assert.Equal(t, "https://indexer/get/1\n", string(link))

	st, err := b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateQueued, st.State)
	assert.Equal(t, int64(100), st.SizeLeft)

	// the downloader picks up the link and starts writing
	require.NoError(t, fsys.Remove(filepath.Join("watch", title+".nzb")))
	st, err = b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateDownloading, st.State)

	require.NoError(t, afero.WriteFile(fsys, filepath.Join("done", title, "movie.mkv.part"), make([]byte, 40), 0o644))
	st, err = b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateDownloading, st.State)
	assert.Equal(t, int64(60), st.SizeLeft)

	require.NoError(t, fsys.Rename(filepath.Join("done", title, "movie.mkv.part"), filepath.Join("done", title, "movie.mkv")))
	st, err = b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateCompleted, st.State)
	assert.Zero(t, st.SizeLeft)
	assert.Equal(t, int64(40), st.SizeBytes)
	assert.Equal(t, filepath.Join("done", title), st.OutputPath)

	require.NoError(t, b.Remove(ctx, id, true))
	_, err = b.Status(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err := afero.Exists(fsys, filepath.Join("done", title))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBlackholeFailedMarker(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := newBlackhole(t, fsys)
	ctx := context.Background()

	id, err := b.Add(ctx, candidate("Some.Show.S01E01.720p.HDTV-GRP", models.ProtocolTorrent, "magnet:?xt=urn:btih:abc"))
	require.NoError(t, err)
	exists, err := afero.Exists(fsys, filepath.Join("watch", "Some.Show.S01E01.720p.HDTV-GRP.magnet"))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, afero.WriteFile(fsys, filepath.Join("done", "Some.Show.S01E01.720p.HDTV-GRP.failed"), []byte("CRC error\n"), 0o644))
	st, err := b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateFailed, st.State)
	assert.Equal(t, "CRC error", st.Message)
}

func TestBlackholeSingleFilePayload(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := newBlackhole(t, fsys)
	ctx := context.Background()

	id, err := b.Add(ctx, candidate("Artist - Album (2019) [FLAC]", models.ProtocolTorrent, "https://tracker/1.torrent"))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, filepath.Join("done", "Artist - Album (2019) [FLAC].flac"), make([]byte, 10), 0o644))

	st, err := b.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStateCompleted, st.State)
	assert.Equal(t, filepath.Join("done", "Artist - Album (2019) [FLAC].flac"), st.OutputPath)
}

func TestBlackholeList(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := newBlackhole(t, fsys)
	ctx := context.Background()

	empty, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := b.Add(ctx, candidate("First.Release", models.ProtocolUsenet, "https://a"))
	require.NoError(t, err)
	second, err := b.Add(ctx, candidate("Second.Release", models.ProtocolUsenet, "https://b"))
	require.NoError(t, err)

	all, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	ids := []string{all[0].ExternalID, all[1].ExternalID}
	assert.ElementsMatch(t, []string{first, second}, ids)
}

func TestBlackholeRejectsBadReleases(t *testing.T) {
	b := newBlackhole(t, afero.NewMemMapFs())
	ctx := context.Background()

	_, err := b.Add(ctx, candidate("", models.ProtocolUsenet, "https://a"))
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = b.Add(ctx, candidate("x", models.ProtocolUsenet, ""))
	assert.ErrorIs(t, err, ErrDownloadURLRequired)
	_, err = b.Add(ctx, candidate("x", models.ProtocolUnknown, "https://a"))
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)
	_, err = b.Status(ctx, "../escape")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Remove(ctx, "missing", false), ErrNotFound)
}

func TestBlackholeRetriesThenFails(t *testing.T) {
	b := newBlackhole(t, afero.NewReadOnlyFs(afero.NewMemMapFs()))
	_, err := b.Add(context.Background(), candidate("Any.Release", models.ProtocolUsenet, "https://a"))
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "AC_DC - Back in Black", sanitizeName("AC/DC - Back in Black"))
	assert.Equal(t, "What_ Why_", sanitizeName("What? Why?"))
	assert.Equal(t, "release", sanitizeName(" .. "))
}
