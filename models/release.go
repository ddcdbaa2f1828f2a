package models

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Protocol is the transport a release is fetched over.
type Protocol string

const (
	ProtocolUnknown Protocol = ""
	ProtocolUsenet  Protocol = "usenet"
	ProtocolTorrent Protocol = "torrent"
)

// ParseProtocol normalises the protocol names used in configuration.
func ParseProtocol(value string) Protocol {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "usenet", "newznab", "nzb":
		return ProtocolUsenet
	case "torrent", "torznab":
		return ProtocolTorrent
	}
	return ProtocolUnknown
}

// ParsedReleaseInfo is the structured result of parsing a release name.
// Values are never mutated after the parser returns them; augmenters work on
// copies obtained through the With helpers.
type ParsedReleaseInfo struct {
	ReleaseTitle string `json:"releaseTitle"`
	Title        string `json:"title"`
	CleanTitle   string `json:"cleanTitle"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
	Year         int    `json:"year,omitempty"`

	Season          int    `json:"season,omitempty"`
	Episodes        []int  `json:"episodes,omitempty"`
	AbsoluteEpisode int    `json:"absoluteEpisode,omitempty"`
	FullSeason      bool   `json:"fullSeason,omitempty"`
	AirDate         string `json:"airDate,omitempty"`

	Quality            QualityModel   `json:"quality"`
	Languages          []language.Tag `json:"languages,omitempty"`
	LanguageConfidence Confidence     `json:"languageConfidence"`

	ReleaseGroup string `json:"releaseGroup,omitempty"`
	Edition      string `json:"edition,omitempty"`
	Codec        string `json:"codec,omitempty"`
	Proper       bool   `json:"proper,omitempty"`
	Repack       bool   `json:"repack,omitempty"`
	Hardcoded    bool   `json:"hardcoded,omitempty"`

	// Matcher names the title grammar that produced Title.
	Matcher string `json:"matcher"`
}

// IsEpisodic reports whether the release carries season or episode markers.
func (p ParsedReleaseInfo) IsEpisodic() bool {
	return p.Season > 0 || len(p.Episodes) > 0 || p.AbsoluteEpisode > 0 || p.FullSeason || p.AirDate != ""
}

// Clone returns a deep copy.
func (p ParsedReleaseInfo) Clone() ParsedReleaseInfo {
	out := p
	if p.Episodes != nil {
		out.Episodes = append([]int(nil), p.Episodes...)
	}
	if p.Languages != nil {
		out.Languages = append([]language.Tag(nil), p.Languages...)
	}
	return out
}

// WithQuality returns a copy carrying a different quality model.
func (p ParsedReleaseInfo) WithQuality(q QualityModel) ParsedReleaseInfo {
	out := p.Clone()
	out.Quality = q
	return out
}

// WithLanguages returns a copy carrying a different language set.
func (p ParsedReleaseInfo) WithLanguages(langs []language.Tag, confidence Confidence) ParsedReleaseInfo {
	out := p.Clone()
	out.Languages = append([]language.Tag(nil), langs...)
	out.LanguageConfidence = confidence
	return out
}

// WithReleaseGroup returns a copy carrying a different release group.
func (p ParsedReleaseInfo) WithReleaseGroup(group string) ParsedReleaseInfo {
	out := p.Clone()
	out.ReleaseGroup = group
	return out
}

// RawRelease is one item returned by an indexer before parsing.
type RawRelease struct {
	Title       string    `json:"title"`
	GUID        string    `json:"guid"`
	IndexerID   string    `json:"indexerId"`
	Indexer     string    `json:"indexer"`
	Protocol    Protocol  `json:"protocol"`
	SizeBytes   int64     `json:"sizeBytes"`
	Seeders     *int      `json:"seeders,omitempty"`
	Leechers    *int      `json:"leechers,omitempty"`
	DownloadURL string    `json:"downloadUrl"`
	InfoURL     string    `json:"infoUrl,omitempty"`
	PublishDate time.Time `json:"publishDate,omitempty"`
	Flags       []string  `json:"flags,omitempty"`
}

// Identity returns the blocklist identity of the release.
func (r RawRelease) Identity() ReleaseIdentity {
	return ReleaseIdentity{GUID: r.GUID, IndexerID: r.IndexerID}
}

// HasFlag reports whether the indexer tagged the release with flag.
func (r RawRelease) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if strings.EqualFold(strings.TrimSpace(f), strings.TrimSpace(flag)) {
			return true
		}
	}
	return false
}

// ReleaseIdentity identifies a release across searches.
type ReleaseIdentity struct {
	GUID      string `json:"guid"`
	IndexerID string `json:"indexerId"`
}

// Severity says whether a rejection may clear up by itself later.
type Severity string

const (
	SeverityPermanent Severity = "permanent"
	SeverityTemporary Severity = "temporary"
)

// Rejection is one failed decision rule.
type Rejection struct {
	Spec     string   `json:"spec"`
	Reason   string   `json:"reason"`
	Detail   string   `json:"detail,omitempty"`
	Severity Severity `json:"severity"`
}

// Candidate is a release under consideration during one search cycle.
type Candidate struct {
	Release           RawRelease        `json:"release"`
	Parsed            ParsedReleaseInfo `json:"parsed"`
	Entity            *LibraryEntity    `json:"entity,omitempty"`
	CustomFormats     []string          `json:"customFormats,omitempty"`
	CustomFormatScore int               `json:"customFormatScore"`
	Rejections        []Rejection       `json:"rejections"`
}

// Accepted reports whether the candidate passed every rule.
func (c Candidate) Accepted() bool {
	return len(c.Rejections) == 0
}

// TemporarilyRejected reports whether every rejection is temporary.
func (c Candidate) TemporarilyRejected() bool {
	if len(c.Rejections) == 0 {
		return false
	}
	for _, r := range c.Rejections {
		if r.Severity != SeverityTemporary {
			return false
		}
	}
	return true
}

// HasRejection reports whether a rejection with the given reason exists.
func (c Candidate) HasRejection(reason string) bool {
	for _, r := range c.Rejections {
		if r.Reason == reason {
			return true
		}
	}
	return false
}
