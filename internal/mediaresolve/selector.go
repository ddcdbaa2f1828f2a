// Package mediaresolve finds the media files inside a completed download and
// picks the one a search was after.
package mediaresolve

import (
	"fmt"
	"log"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// File is one media file found in a download payload.
type File struct {
	Path string
	Size int64
}

// Hints describe what the grab was for.
type Hints struct {
	ReleaseTitle    string
	Season          int
	Episodes        []int
	AbsoluteEpisode int
}

// EpisodeCode is a parsed SxxEyy code.
type EpisodeCode struct {
	Season  int
	Episode int
}

func (c EpisodeCode) String() string {
	return fmt.Sprintf("S%02dE%02d", c.Season, c.Episode)
}

var (
	mediaExtensions = map[string]struct{}{
		".mkv": {}, ".mp4": {}, ".m4v": {}, ".avi": {}, ".ts": {}, ".m2ts": {},
		".flac": {}, ".mp3": {}, ".m4a": {}, ".m4b": {}, ".ogg": {},
		".epub": {}, ".mobi": {}, ".azw3": {}, ".pdf": {},
	}
	episodeCodePattern   = regexp.MustCompile(`(?i)s(\d{1,2})\s*e(\d{1,3})`)
	episodeAltPattern    = regexp.MustCompile(`(?i)ep(?:isode)?\.?\s*(\d{1,2})`)
	episodeNumberPattern = regexp.MustCompile(`(?i)[-_\s](\d{1,2})[-_\s\[\.]`)

	absoluteDashPattern    = regexp.MustCompile(`[-–]\s*(\d{2,4})(?:v\d)?\s*[\[\(\s.]`)
	absoluteKeywordPattern = regexp.MustCompile(`(?i)(?:episode|ep\.?)\s*(\d{2,4})(?:\s|$|[\[\(.])`)

	resolutionPattern = regexp.MustCompile(`(?i)(\d{3,4})p`)
	yearPattern       = regexp.MustCompile(`[\(\[](\d{4})[\)\]]`)
)

// Select returns the index of the file matching hints, or -1 with the reason
// nothing qualified. Episodic hints are strict: a pack without the wanted
// episode selects nothing rather than the closest title.
func Select(files []File, hints Hints) (int, string) {
	if len(files) == 0 {
		return -1, "no media files"
	}

	releaseTokens := TokenizeParts(NormalizeReleasePart(hints.ReleaseTitle))
	releaseFlat := strings.Join(releaseTokens, "")

	if hints.Season > 0 && len(hints.Episodes) > 0 {
		target := EpisodeCode{Season: hints.Season, Episode: hints.Episodes[0]}
		var matching []int
		for idx, f := range files {
			if FileMatchesEpisode(f.Path, target) {
				matching = append(matching, idx)
			}
		}
		if len(matching) == 0 && hints.AbsoluteEpisode > 0 {
			for idx, f := range files {
				if ep, ok := ParseAbsoluteEpisode(path.Base(f.Path)); ok && ep == hints.AbsoluteEpisode {
					matching = append(matching, idx)
				}
			}
		}
		switch len(matching) {
		case 0:
			log.Printf("[mediaresolve] none of %d files matches %s", len(files), target)
			return -1, "no file matches " + target.String()
		case 1:
			return matching[0], "matched episode " + target.String()
		}
		if idx, score := pickBySimilarity(files, matching, releaseTokens, releaseFlat); idx != -1 {
			return idx, fmt.Sprintf("episode match + title similarity %d", score)
		}
		return pickLargest(files, matching), "episode match, largest file"
	}

	if idx, score := pickBySimilarity(files, nil, releaseTokens, releaseFlat); idx != -1 {
		return idx, fmt.Sprintf("title similarity %d", score)
	}
	return pickLargest(files, nil), "largest file"
}

func pickBySimilarity(files []File, subset []int, releaseTokens []string, releaseFlat string) (int, int) {
	if len(releaseTokens) == 0 {
		return -1, 0
	}
	best, bestScore := -1, 0
	for _, idx := range indices(files, subset) {
		score := SimilarityScore(files[idx].Path, releaseTokens, releaseFlat)
		if score <= 0 {
			continue
		}
		if best == -1 || score > bestScore || (score == bestScore && files[idx].Size > files[best].Size) {
			best, bestScore = idx, score
		}
	}
	return best, bestScore
}

func pickLargest(files []File, subset []int) int {
	best := -1
	for _, idx := range indices(files, subset) {
		if best == -1 || files[idx].Size > files[best].Size {
			best = idx
		}
	}
	return best
}

func indices(files []File, subset []int) []int {
	if len(subset) > 0 {
		return subset
	}
	all := make([]int, len(files))
	for i := range files {
		all[i] = i
	}
	return all
}

// SimilarityScore is a rough token overlap score between a file name and the
// release title. Samples and extras are penalised.
func SimilarityScore(name string, releaseTokens []string, releaseFlat string) int {
	if len(releaseTokens) == 0 {
		return 0
	}
	normalized := NormalizeReleasePart(name)
	tokens := TokenizeParts(normalized)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}

	score := 0
	for _, tok := range releaseTokens {
		if len(tok) <= 2 {
			continue
		}
		if _, ok := set[tok]; ok {
			score += 10
		}
	}
	flat := strings.Join(tokens, "")
	if flat != "" && releaseFlat != "" && (strings.Contains(flat, releaseFlat) || strings.Contains(releaseFlat, flat)) {
		score += 25
	}

	lower := strings.ToLower(normalized)
	if strings.Contains(lower, "sample") || strings.Contains(lower, "extras") {
		score = max(score-20, 0)
	}
	return score
}

// TokenizeParts splits strings into lowercase alphanumeric tokens.
func TokenizeParts(parts ...string) []string {
	var tokens []string
	for _, part := range parts {
		fields := strings.FieldsFunc(strings.ToLower(part), func(r rune) bool {
			return (r < 'a' || r > 'z') && (r < '0' || r > '9')
		})
		tokens = append(tokens, fields...)
	}
	return tokens
}

// NormalizeReleasePart returns the base name without a media extension.
func NormalizeReleasePart(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(trimmed, "\\", "/"))
	if base == "." || base == "/" {
		base = trimmed
	}
	ext := path.Ext(base)
	if _, ok := mediaExtensions[strings.ToLower(ext)]; ok {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// FileMatchesEpisode reports whether a file name carries the target code.
// Bare episode numbers ("Show - 05") only count for season one.
func FileMatchesEpisode(name string, target EpisodeCode) bool {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if code, ok := ParseEpisodeCode(name); ok {
		return code == target
	}
	if target.Season != 1 {
		return false
	}
	episode, ok := parseEpisodeNumber(name)
	return ok && episode == target.Episode
}

// ParseEpisodeCode extracts the first SxxEyy code in value.
func ParseEpisodeCode(value string) (EpisodeCode, bool) {
	m := episodeCodePattern.FindStringSubmatch(value)
	if len(m) != 3 {
		return EpisodeCode{}, false
	}
	season, err := strconv.Atoi(m[1])
	if err != nil {
		return EpisodeCode{}, false
	}
	episode, err := strconv.Atoi(m[2])
	if err != nil {
		return EpisodeCode{}, false
	}
	return EpisodeCode{Season: season, Episode: episode}, true
}

func parseEpisodeNumber(value string) (int, bool) {
	for _, re := range []*regexp.Regexp{episodeAltPattern, episodeNumberPattern} {
		if m := re.FindStringSubmatch(value); len(m) == 2 {
			if episode, err := strconv.Atoi(m[1]); err == nil && episode > 0 {
				return episode, true
			}
		}
	}
	return 0, false
}

// ParseAbsoluteEpisode extracts an absolute episode number from anime style
// names such as "Show - 1153 [1080p]". Resolutions and years are ignored.
func ParseAbsoluteEpisode(value string) (int, bool) {
	excluded := make(map[int]bool)
	for _, re := range []*regexp.Regexp{resolutionPattern, yearPattern} {
		for _, m := range re.FindAllStringSubmatch(value, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				excluded[n] = true
			}
		}
	}
	for _, re := range []*regexp.Regexp{absoluteDashPattern, absoluteKeywordPattern} {
		if m := re.FindStringSubmatch(value); len(m) == 2 {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && !excluded[n] {
				return n, true
			}
		}
	}
	return 0, false
}
