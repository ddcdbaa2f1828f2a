package models

import (
	"fmt"
	"strconv"
	"strings"
)

// QualityKind separates the media families a quality belongs to.
type QualityKind string

const (
	QualityKindUnknown QualityKind = "unknown"
	QualityKindVideo   QualityKind = "video"
	QualityKindAudio   QualityKind = "audio"
	QualityKindBook    QualityKind = "book"
)

// Source is where a video release was captured from.
type Source string

const (
	SourceUnknown   Source = ""
	SourceCam       Source = "cam"
	SourceTelesync  Source = "telesync"
	SourceTelecine  Source = "telecine"
	SourceWorkprint Source = "workprint"
	SourceDVD       Source = "dvd"
	SourceTV        Source = "tv"
	SourceWebDL     Source = "webdl"
	SourceWebRip    Source = "webrip"
	SourceBluray    Source = "bluray"
)

// Resolution is the vertical line count of a video release, 0 when unknown.
type Resolution int

const (
	ResolutionUnknown Resolution = 0
	Resolution480p    Resolution = 480
	Resolution576p    Resolution = 576
	Resolution720p    Resolution = 720
	Resolution1080p   Resolution = 1080
	Resolution2160p   Resolution = 2160
)

func (r Resolution) String() string {
	if r == ResolutionUnknown {
		return "unknown"
	}
	return strconv.Itoa(int(r)) + "p"
}

// ParseResolution accepts "1080p", "1080", "4k" and similar spellings.
func ParseResolution(value string) Resolution {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return ResolutionUnknown
	case strings.Contains(v, "2160") || v == "4k" || v == "uhd":
		return Resolution2160p
	case strings.Contains(v, "1080"):
		return Resolution1080p
	case strings.Contains(v, "720"):
		return Resolution720p
	case strings.Contains(v, "576"):
		return Resolution576p
	case strings.Contains(v, "480"):
		return Resolution480p
	}
	return ResolutionUnknown
}

// Quality is one entry of the quality table.
type Quality struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Kind       QualityKind `json:"kind"`
	Source     Source      `json:"source,omitempty"`
	Resolution Resolution  `json:"resolution,omitempty"`
	Remux      bool        `json:"remux,omitempty"`
}

// IsUnknown reports whether q is the unknown placeholder.
func (q Quality) IsUnknown() bool {
	return q.ID == QualityUnknown.ID
}

func (q Quality) String() string {
	return q.Name
}

// QualityUnknown is returned whenever nothing better can be determined.
var QualityUnknown = Quality{ID: 0, Name: "Unknown", Kind: QualityKindUnknown}

// QualityTable is an immutable lookup over a fixed set of qualities.
type QualityTable struct {
	all    []Quality
	byID   map[int]Quality
	byName map[string]Quality
}

// NewQualityTable indexes the provided qualities. The unknown quality is
// always present.
func NewQualityTable(qualities []Quality) *QualityTable {
	t := &QualityTable{
		byID:   make(map[int]Quality, len(qualities)+1),
		byName: make(map[string]Quality, len(qualities)+1),
	}
	add := func(q Quality) {
		if _, exists := t.byID[q.ID]; exists {
			return
		}
		t.all = append(t.all, q)
		t.byID[q.ID] = q
		t.byName[strings.ToLower(q.Name)] = q
	}
	add(QualityUnknown)
	for _, q := range qualities {
		add(q)
	}
	return t
}

// DefaultQualities returns a table covering video, audio and book releases.
func DefaultQualities() *QualityTable {
	return NewQualityTable([]Quality{
		{ID: 1, Name: "SDTV", Kind: QualityKindVideo, Source: SourceTV, Resolution: Resolution480p},
		{ID: 2, Name: "DVD", Kind: QualityKindVideo, Source: SourceDVD, Resolution: Resolution480p},
		{ID: 3, Name: "WEBDL-480p", Kind: QualityKindVideo, Source: SourceWebDL, Resolution: Resolution480p},
		{ID: 4, Name: "WEBRip-480p", Kind: QualityKindVideo, Source: SourceWebRip, Resolution: Resolution480p},
		{ID: 5, Name: "Bluray-480p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution480p},
		{ID: 6, Name: "HDTV-720p", Kind: QualityKindVideo, Source: SourceTV, Resolution: Resolution720p},
		{ID: 7, Name: "WEBDL-720p", Kind: QualityKindVideo, Source: SourceWebDL, Resolution: Resolution720p},
		{ID: 8, Name: "WEBRip-720p", Kind: QualityKindVideo, Source: SourceWebRip, Resolution: Resolution720p},
		{ID: 9, Name: "Bluray-720p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution720p},
		{ID: 10, Name: "HDTV-1080p", Kind: QualityKindVideo, Source: SourceTV, Resolution: Resolution1080p},
		{ID: 11, Name: "WEBDL-1080p", Kind: QualityKindVideo, Source: SourceWebDL, Resolution: Resolution1080p},
		{ID: 12, Name: "WEBRip-1080p", Kind: QualityKindVideo, Source: SourceWebRip, Resolution: Resolution1080p},
		{ID: 13, Name: "Bluray-1080p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution1080p},
		{ID: 14, Name: "Remux-1080p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution1080p, Remux: true},
		{ID: 15, Name: "HDTV-2160p", Kind: QualityKindVideo, Source: SourceTV, Resolution: Resolution2160p},
		{ID: 16, Name: "WEBDL-2160p", Kind: QualityKindVideo, Source: SourceWebDL, Resolution: Resolution2160p},
		{ID: 17, Name: "WEBRip-2160p", Kind: QualityKindVideo, Source: SourceWebRip, Resolution: Resolution2160p},
		{ID: 18, Name: "Bluray-2160p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution2160p},
		{ID: 19, Name: "Remux-2160p", Kind: QualityKindVideo, Source: SourceBluray, Resolution: Resolution2160p, Remux: true},
		{ID: 20, Name: "CAM", Kind: QualityKindVideo, Source: SourceCam},
		{ID: 21, Name: "TELESYNC", Kind: QualityKindVideo, Source: SourceTelesync},
		{ID: 22, Name: "TELECINE", Kind: QualityKindVideo, Source: SourceTelecine},
		{ID: 23, Name: "WORKPRINT", Kind: QualityKindVideo, Source: SourceWorkprint},

		{ID: 30, Name: "MP3-192", Kind: QualityKindAudio},
		{ID: 31, Name: "MP3-256", Kind: QualityKindAudio},
		{ID: 32, Name: "MP3-320", Kind: QualityKindAudio},
		{ID: 33, Name: "MP3-VBR-V0", Kind: QualityKindAudio},
		{ID: 34, Name: "AAC", Kind: QualityKindAudio},
		{ID: 35, Name: "OGG Vorbis", Kind: QualityKindAudio},
		{ID: 36, Name: "FLAC", Kind: QualityKindAudio},
		{ID: 37, Name: "FLAC 24bit", Kind: QualityKindAudio},
		{ID: 38, Name: "ALAC", Kind: QualityKindAudio},
		{ID: 39, Name: "WAV", Kind: QualityKindAudio},

		{ID: 50, Name: "PDF", Kind: QualityKindBook},
		{ID: 51, Name: "MOBI", Kind: QualityKindBook},
		{ID: 52, Name: "EPUB", Kind: QualityKindBook},
		{ID: 53, Name: "AZW3", Kind: QualityKindBook},
		{ID: 54, Name: "M4B", Kind: QualityKindBook},
	})
}

// All returns a copy of every quality in table order.
func (t *QualityTable) All() []Quality {
	out := make([]Quality, len(t.all))
	copy(out, t.all)
	return out
}

// ByID returns the quality with the given id or the unknown quality.
func (t *QualityTable) ByID(id int) Quality {
	if q, ok := t.byID[id]; ok {
		return q
	}
	return QualityUnknown
}

// ByName looks a quality up case-insensitively.
func (t *QualityTable) ByName(name string) (Quality, bool) {
	q, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return q, ok
}

// MustByName is ByName for names known to exist in the table.
func (t *QualityTable) MustByName(name string) Quality {
	q, ok := t.ByName(name)
	if !ok {
		panic(fmt.Sprintf("quality %q not in table", name))
	}
	return q
}

// Video resolves the video quality for a source/resolution pair. Missing
// pieces are filled with the most conservative guess: an unknown resolution
// on a known source maps to the lowest resolution for that source, and a
// known resolution without a source is treated as a web download.
func (t *QualityTable) Video(source Source, resolution Resolution, remux bool) Quality {
	switch source {
	case SourceCam, SourceTelesync, SourceTelecine, SourceWorkprint:
		return t.findVideo(source, ResolutionUnknown, false)
	}
	if source == SourceUnknown && resolution == ResolutionUnknown {
		return QualityUnknown
	}
	if source == SourceUnknown {
		if remux {
			source = SourceBluray
		} else {
			source = SourceWebDL
		}
	}
	if resolution == ResolutionUnknown {
		resolution = Resolution480p
	}
	if resolution == Resolution576p {
		resolution = Resolution480p
	}
	if source == SourceDVD {
		return t.findVideo(SourceDVD, Resolution480p, false)
	}
	if remux && source == SourceBluray && resolution >= Resolution1080p {
		if q := t.findVideo(source, resolution, true); !q.IsUnknown() {
			return q
		}
	}
	if source == SourceTV && resolution == Resolution480p {
		return t.findVideo(SourceTV, Resolution480p, false)
	}
	return t.findVideo(source, resolution, false)
}

func (t *QualityTable) findVideo(source Source, resolution Resolution, remux bool) Quality {
	for _, q := range t.all {
		if q.Kind != QualityKindVideo {
			continue
		}
		if q.Source == source && q.Resolution == resolution && q.Remux == remux {
			return q
		}
	}
	return QualityUnknown
}

// Revision tracks proper/repack/version markers on a release.
type Revision struct {
	Version  int  `json:"version"`
	Real     int  `json:"real"`
	IsRepack bool `json:"isRepack,omitempty"`
}

// DefaultRevision is the revision of a release without any markers.
func DefaultRevision() Revision {
	return Revision{Version: 1}
}

// Compare orders revisions by version first, then by REAL count.
func (r Revision) Compare(other Revision) int {
	switch {
	case r.Version != other.Version:
		if r.Version > other.Version {
			return 1
		}
		return -1
	case r.Real != other.Real:
		if r.Real > other.Real {
			return 1
		}
		return -1
	}
	return 0
}

// QualityModel is a quality guess plus the confidence of each of its parts.
type QualityModel struct {
	Quality              Quality    `json:"quality"`
	Revision             Revision   `json:"revision"`
	QualityConfidence    Confidence `json:"qualityConfidence"`
	ResolutionConfidence Confidence `json:"resolutionConfidence"`
	RevisionConfidence   Confidence `json:"revisionConfidence"`
}

// UnknownQualityModel is the result when no quality signal was found.
func UnknownQualityModel() QualityModel {
	return QualityModel{
		Quality:              QualityUnknown,
		Revision:             DefaultRevision(),
		QualityConfidence:    ConfidenceFallback,
		ResolutionConfidence: ConfidenceFallback,
		RevisionConfidence:   ConfidenceFallback,
	}
}

func (m QualityModel) String() string {
	if m.Revision.Version > 1 || m.Revision.Real > 0 {
		return fmt.Sprintf("%s v%d", m.Quality.Name, m.Revision.Version+m.Revision.Real)
	}
	return m.Quality.Name
}
