package augment

import (
	"strings"

	"novagrab/models"
)

// MediaInfoSignal carries stream properties read from the downloaded file.
type MediaInfoSignal struct {
	Width              int
	Height             int
	VideoCodec         string
	AudioFormat        string
	AudioBitsPerSample int
	AudioBitrateKbps   int
}

func (MediaInfoSignal) signalKind() string { return "mediainfo" }

type widthBucket struct {
	minWidth   int
	resolution models.Resolution
}

// Checked top-down. A width on a breakpoint maps to that breakpoint's
// resolution; anything between breakpoints rounds down.
var widthBuckets = []widthBucket{
	{3200, models.Resolution2160p},
	{1490, models.Resolution1080p},
	{1200, models.Resolution720p},
	{0, models.Resolution480p},
}

// ResolutionFromWidth maps a frame width to the nearest resolution bucket at
// or below it. Zero or negative widths are unknown.
func ResolutionFromWidth(width int) models.Resolution {
	if width <= 0 {
		return models.ResolutionUnknown
	}
	for _, b := range widthBuckets {
		if width >= b.minWidth {
			return b.resolution
		}
	}
	return models.Resolution480p
}

// MediaInfo refines resolution, audio format and codec from file metadata.
type MediaInfo struct {
	qualities *models.QualityTable
}

func NewMediaInfo(table *models.QualityTable) *MediaInfo {
	if table == nil {
		table = models.DefaultQualities()
	}
	return &MediaInfo{qualities: table}
}

func (m *MediaInfo) Name() string                  { return "MediaInfo" }
func (m *MediaInfo) Confidence() models.Confidence { return models.ConfidenceMediaInfo }

func (m *MediaInfo) Augment(info models.ParsedReleaseInfo, signal Signal) (models.ParsedReleaseInfo, bool) {
	var sig MediaInfoSignal
	switch s := signal.(type) {
	case MediaInfoSignal:
		sig = s
	case *MediaInfoSignal:
		if s == nil {
			return info, false
		}
		sig = *s
	default:
		return info, false
	}

	q := info.Quality
	changed := false

	if res := ResolutionFromWidth(sig.Width); res != models.ResolutionUnknown && q.Quality.Kind != models.QualityKindAudio && q.Quality.Kind != models.QualityKindBook {
		if m.Confidence().CanReplace(q.ResolutionConfidence) {
			updated := m.qualities.Video(q.Quality.Source, res, q.Quality.Remux)
			if !updated.IsUnknown() && (updated.ID != q.Quality.ID || q.ResolutionConfidence.Compare(m.Confidence()) != 0) {
				q.Quality = updated
				q.ResolutionConfidence = m.Confidence()
				changed = true
			}
		}
	}

	if name := audioQualityName(sig); name != "" && (q.Quality.Kind == models.QualityKindAudio || q.Quality.IsUnknown()) && sig.Width <= 0 {
		if found, ok := m.qualities.ByName(name); ok && m.Confidence().CanReplace(q.QualityConfidence) {
			if found.ID != q.Quality.ID || q.QualityConfidence.Compare(m.Confidence()) != 0 {
				q.Quality = found
				q.QualityConfidence = m.Confidence()
				changed = true
			}
		}
	}

	codec := info.Codec
	if info.Codec == "" && sig.VideoCodec != "" {
		codec = normalizeCodec(sig.VideoCodec)
		changed = true
	}

	if !changed {
		return info, false
	}
	out := info.WithQuality(q)
	out.Codec = codec
	return out, true
}

func audioQualityName(sig MediaInfoSignal) string {
	switch strings.ToLower(strings.TrimSpace(sig.AudioFormat)) {
	case "flac":
		if sig.AudioBitsPerSample >= 24 {
			return "FLAC 24bit"
		}
		return "FLAC"
	case "alac":
		return "ALAC"
	case "pcm", "wav":
		return "WAV"
	case "mp3", "mpeg audio":
		switch {
		case sig.AudioBitrateKbps >= 320:
			return "MP3-320"
		case sig.AudioBitrateKbps >= 256:
			return "MP3-256"
		default:
			return "MP3-192"
		}
	case "aac":
		return "AAC"
	case "vorbis", "ogg":
		return "OGG Vorbis"
	}
	return ""
}

func normalizeCodec(codec string) string {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "h264", "h.264", "avc", "x264":
		return "x264"
	case "h265", "h.265", "hevc", "x265":
		return "x265"
	case "av1":
		return "AV1"
	case "xvid", "divx", "mpeg-4 visual":
		return "XviD"
	}
	return codec
}
