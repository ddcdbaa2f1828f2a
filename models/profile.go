package models

import "strings"

// QualityProfile orders the qualities a user accepts. Items are listed from
// lowest to highest preference.
type QualityProfile struct {
	Name                     string         `json:"name"`
	Items                    []string       `json:"items"`
	Cutoff                   string         `json:"cutoff"`
	UpgradeAllowed           bool           `json:"upgradeAllowed"`
	Languages                []string       `json:"languages,omitempty"`
	MinimumCustomFormatScore int            `json:"minimumCustomFormatScore"`
	FormatScores             map[string]int `json:"formatScores,omitempty"`
}

// Ordinal returns the 1-based position of quality in the profile, 0 when the
// quality is not allowed.
func (p QualityProfile) Ordinal(q Quality) int {
	for i, name := range p.Items {
		if strings.EqualFold(strings.TrimSpace(name), q.Name) {
			return i + 1
		}
	}
	return 0
}

// Allows reports whether quality is part of the profile.
func (p QualityProfile) Allows(q Quality) bool {
	return p.Ordinal(q) > 0
}

// CutoffOrdinal returns the ordinal of the cutoff quality, or the highest
// ordinal when no cutoff is configured.
func (p QualityProfile) CutoffOrdinal() int {
	for i, name := range p.Items {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(p.Cutoff)) {
			return i + 1
		}
	}
	return len(p.Items)
}

// QualityDefinition bounds acceptable release sizes for one quality. Sizes
// are megabytes per minute of runtime for video, and absolute megabytes for
// entities without a runtime.
type QualityDefinition struct {
	Quality string  `json:"quality"`
	MinSize float64 `json:"minSize"`
	MaxSize float64 `json:"maxSize"`
}

// CustomFormat is a user-defined pattern set that adds score to matching
// releases.
type CustomFormat struct {
	Name  string             `json:"name"`
	Specs []CustomFormatSpec `json:"specifications"`
}

// CustomFormatSpec is a single regular-expression condition of a format.
type CustomFormatSpec struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Negate   bool   `json:"negate,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// DelayProfile controls protocol preference and grab delays.
type DelayProfile struct {
	PreferredProtocol      Protocol `json:"preferredProtocol"`
	EnableUsenet           bool     `json:"enableUsenet"`
	EnableTorrent          bool     `json:"enableTorrent"`
	UsenetDelayMinutes     int      `json:"usenetDelay"`
	TorrentDelayMinutes    int      `json:"torrentDelay"`
	BypassIfHighestQuality bool     `json:"bypassIfHighestQuality"`
}

// Allows reports whether releases over protocol may be grabbed.
func (d DelayProfile) Allows(protocol Protocol) bool {
	switch protocol {
	case ProtocolUsenet:
		return d.EnableUsenet
	case ProtocolTorrent:
		return d.EnableTorrent
	}
	return false
}
