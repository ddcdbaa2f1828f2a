// Package parser turns free-form release names into structured release
// information. Parsing is total: a name that cannot be understood still
// yields a best-effort result at fallback confidence.
package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"novagrab/models"
	"novagrab/utils/similarity"
)

var (
	extensionPattern   = regexp.MustCompile(`(?i)\.(?:mkv|mp4|avi|m4v|wmv|mov|mpg|mpeg|nzb|torrent|rar|zip|iso)$`)
	sitePrefixPattern  = regexp.MustCompile(`(?i)^(?:\[\s*(?:www\.)?[a-z0-9-]+\.[a-z]{2,4}\s*\]|www\.[a-z0-9-]+\.[a-z]{2,4})[\s.-]*`)
	leadingGroup       = regexp.MustCompile(`^\[([^\]]+)\][\s.-]*`)
	suffixGroupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)(?:\[[^\]]*\])?\s*$`)
)

var notGroups = map[string]bool{
	"dl": true, "rip": true, "web": true, "hd": true, "sd": true, "ray": true,
	"x264": true, "x265": true, "h264": true, "h265": true, "hevc": true, "avc": true,
}

// Parser parses release names against a fixed quality table.
type Parser struct {
	qualities *models.QualityTable
}

// New returns a Parser resolving qualities from table. A nil table uses the
// default qualities.
func New(table *models.QualityTable) *Parser {
	if table == nil {
		table = models.DefaultQualities()
	}
	return &Parser{qualities: table}
}

// Parse parses raw with a parser over the default quality table.
func Parse(raw string) models.ParsedReleaseInfo {
	return New(nil).Parse(raw)
}

// Parse never fails. The title comes from the first grammar that matches;
// quality, language and the other attributes are read independently from
// the text that follows the title.
func (p *Parser) Parse(raw string) models.ParsedReleaseInfo {
	info := models.ParsedReleaseInfo{
		ReleaseTitle:       raw,
		Quality:            models.UnknownQualityModel(),
		LanguageConfidence: models.ConfidenceFallback,
	}

	s := prepare(raw)

	var lead string
	leadEnd := 0
	if m := leadingGroup.FindStringSubmatchIndex(s); m != nil {
		lead = strings.TrimSpace(s[m[2]:m[3]])
		leadEnd = m[1]
	}

	cut := tokenCut(s, leadEnd)
	body := s[leadEnd:cut]
	in := grammarInput{lead: lead, video: matchVideo(s[cut:]).found()}

	var tm titleMatch
	for _, g := range grammars {
		m, ok := g.match(body, in)
		if !ok {
			continue
		}
		tm = m
		info.Matcher = g.name
		break
	}

	titleEnd := leadEnd + tm.end
	tail := s[titleEnd:]

	info.Title = tm.title
	info.CleanTitle = similarity.CleanTitle(tm.title)
	info.Artist = tm.artist
	info.Album = tm.album
	info.Year = tm.year
	info.Season = tm.season
	info.Episodes = tm.episodes
	info.AbsoluteEpisode = tm.absolute
	info.FullSeason = tm.fullSeason
	info.AirDate = tm.airDate

	p.applyQuality(&info, tail)

	if langs := matchLanguages(tail); len(langs) > 0 {
		info.Languages = langs
		info.LanguageConfidence = models.ConfidenceTag
	} else {
		info.Languages = []language.Tag{language.English}
	}

	info.Edition = matchEdition(tail)
	info.Hardcoded = hardcodedPattern.MatchString(tail)
	info.Proper = properPattern.MatchString(tail)
	info.Repack = repackPattern.MatchString(tail)
	info.ReleaseGroup = releaseGroup(s, titleEnd, lead)

	return info
}

func (p *Parser) applyQuality(info *models.ParsedReleaseInfo, tail string) {
	q := &info.Quality

	if rev, ok := matchRevision(tail); ok {
		q.Revision = rev
		q.RevisionConfidence = models.ConfidenceTag
	}

	video := matchVideo(tail)
	info.Codec = video.codec
	if video.found() {
		q.Quality = p.qualities.Video(video.source, video.resolution, video.remux)
		if !q.Quality.IsUnknown() {
			q.QualityConfidence = models.ConfidenceTag
		}
		if video.resolution != models.ResolutionUnknown {
			q.ResolutionConfidence = models.ConfidenceTag
		}
		return
	}

	name := matchAudio(tail)
	if name == "" {
		name = matchBook(tail)
	}
	if name == "" {
		return
	}
	if found, ok := p.qualities.ByName(name); ok {
		q.Quality = found
		q.QualityConfidence = models.ConfidenceTag
	}
}

// prepare strips paths, container extensions and site prefixes. Underscores
// become spaces so word boundaries work the same for every separator.
func prepare(raw string) string {
	s := strings.TrimSpace(raw)
	if extensionPattern.MatchString(s) {
		if i := strings.LastIndexAny(s, `/\`); i >= 0 {
			s = s[i+1:]
		}
		s = extensionPattern.ReplaceAllString(s, "")
	}
	s = sitePrefixPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSpace(s)
}

// tokenCut returns the offset of the first attribute token after the last
// year in s. Tokens that precede a year are treated as part of the title.
func tokenCut(s string, from int) int {
	start := from
	if years := yearPattern.FindAllStringIndex(s[from:], -1); len(years) > 0 {
		start = from + years[len(years)-1][1]
	}
	if loc := tokenPattern.FindStringIndex(s[start:]); loc != nil {
		return start + loc[0]
	}
	return len(s)
}

func releaseGroup(s string, titleEnd int, lead string) string {
	if m := suffixGroupPattern.FindStringSubmatchIndex(s); m != nil && m[0] >= titleEnd {
		group := s[m[2]:m[3]]
		if isGroupName(group) {
			return group
		}
	}
	if lead != "" && isGroupName(lead) {
		return lead
	}
	return ""
}

func isGroupName(name string) bool {
	if name == "" || notGroups[strings.ToLower(name)] {
		return false
	}
	if strings.Trim(name, "0123456789") == "" {
		return false
	}
	return !tokenPattern.MatchString(name)
}
