package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"novagrab/models"
)

var (
	resolutionPattern = regexp.MustCompile(`(?i)\b(2160|1080|720|576|480)[pi]\b|\b(?:3840|1920|1280|1024|720|640)x(2160|1080|720|576|480)\b|\b(4k|uhd)\b`)
	remuxPattern      = regexp.MustCompile(`(?i)\b(?:bd)?remux\b`)
	codecPatterns     = []struct {
		name    string
		pattern *regexp.Regexp
	}{
		{"x265", regexp.MustCompile(`(?i)\b(?:x265|h\.?265|hevc)\b`)},
		{"x264", regexp.MustCompile(`(?i)\b(?:x264|h\.?264|avc)\b`)},
		{"AV1", regexp.MustCompile(`(?i)\bav1\b`)},
		{"XviD", regexp.MustCompile(`(?i)\b(?:xvid|divx)\b`)},
		{"VC-1", regexp.MustCompile(`(?i)\bvc-?1\b`)},
		{"MPEG2", regexp.MustCompile(`(?i)\bmpeg-?2\b`)},
	}

	// Checked in order; the first source found wins.
	sourcePatterns = []struct {
		source  models.Source
		pattern *regexp.Regexp
	}{
		{models.SourceBluray, regexp.MustCompile(`(?i)\b(?:blu-?ray|bdrip|brrip|bd25|bd50|bdremux|bdmv)\b`)},
		{models.SourceWebRip, regexp.MustCompile(`(?i)\bweb-?rip\b`)},
		{models.SourceWebDL, regexp.MustCompile(`(?i)\b(?:web-?dl|amzn|dsnp|hmax|atvp|itunes)\b`)},
		{models.SourceWebDL, regexp.MustCompile(`(?i)\bweb\b`)},
		{models.SourceTV, regexp.MustCompile(`(?i)\b(?:hdtv|pdtv|sdtv|dsr|tvrip)\b`)},
		{models.SourceDVD, regexp.MustCompile(`(?i)\b(?:dvdrip|dvd|dvd5|dvd9|dvdr)\b`)},
		{models.SourceCam, regexp.MustCompile(`(?i)\b(?:cam|camrip|hdcam)\b`)},
		{models.SourceTelesync, regexp.MustCompile(`(?i)\b(?:telesync|hdts|tsrip)\b`)},
		{models.SourceTelecine, regexp.MustCompile(`(?i)\b(?:telecine|hdtc)\b`)},
		{models.SourceWorkprint, regexp.MustCompile(`(?i)\bworkprint\b`)},
	}

	flacPattern       = regexp.MustCompile(`(?i)\bflac\b`)
	hiResPattern      = regexp.MustCompile(`(?i)\b24[ -]?bit\b|\b24-(?:44|48|88|96|176|192)\b|\bhi-?res\b`)
	alacPattern       = regexp.MustCompile(`(?i)\balac\b`)
	wavPattern        = regexp.MustCompile(`(?i)\bwav\b`)
	mp3Pattern        = regexp.MustCompile(`(?i)\bmp3\b`)
	v0Pattern         = regexp.MustCompile(`(?i)\bv0\b`)
	bitratePattern    = regexp.MustCompile(`(?i)\b(320|256|192)(?:\s?kbps|k)?\b`)
	aacPattern        = regexp.MustCompile(`(?i)\b(?:aac|m4a)\b`)
	vorbisPattern     = regexp.MustCompile(`(?i)\b(?:ogg|vorbis)\b`)
	bookFormatPattern = regexp.MustCompile(`(?i)\b(epub|mobi|azw3|pdf|m4b)\b`)

	properPattern    = regexp.MustCompile(`(?i)\bproper\b`)
	repackPattern    = regexp.MustCompile(`(?i)\b(?:repack|rerip)\b`)
	realPattern      = regexp.MustCompile(`\bREAL\b`)
	versionPattern   = regexp.MustCompile(`(?i)(?:\d|\b)v([2-9])\b`)
	editionPattern   = regexp.MustCompile(`(?i)\b(extended(?:[ .]cut|[ .]edition)?|director'?s[ .]cut|unrated|uncut|theatrical(?:[ .]cut)?|remastered|imax|criterion|special[ .]edition|collector'?s[ .]edition|anniversary[ .]edition)\b`)
	hardcodedPattern = regexp.MustCompile(`(?i)\b(?:hc|hardsubs?|hardcoded|korsub)\b`)
)

// tokenPattern finds the first attribute token. Everything before it is
// considered for the title.
var tokenPattern = regexp.MustCompile(`(?i)\b(?:2160|1080|720|576|480)[pi]\b|\b(?:4k|uhd)\b|` +
	`\b(?:bd)?remux\b|\b(?:blu-?ray|bdrip|brrip|web-?rip|web-?dl|web|hdtv|pdtv|dvdrip|dvd|hdcam|camrip|cam|telesync|hdts|hdtc|workprint)\b|` +
	`\b(?:x26[45]|h\.?26[45]|hevc|xvid|av1)\b|` +
	`\b(?:flac|alac|wav|mp3|v0|320|24[ -]?bit|aac|ogg|vorbis)\b|` +
	`\b(?:epub|mobi|azw3|pdf|m4b)\b|` +
	`\b(?:proper|repack|rerip)\b`)

type languageToken struct {
	pattern *regexp.Regexp
	tag     language.Tag
}

var languageTokens = []languageToken{
	{regexp.MustCompile(`(?i)\b(?:english|eng)\b`), language.English},
	{regexp.MustCompile(`(?i)\b(?:french|truefrench|vostfr|vff|vf2)\b`), language.French},
	{regexp.MustCompile(`(?i)\b(?:german|deutsch|ger)\b`), language.German},
	{regexp.MustCompile(`(?i)\b(?:spanish|castellano|latino|esp)\b`), language.Spanish},
	{regexp.MustCompile(`(?i)\b(?:italian|ita)\b`), language.Italian},
	{regexp.MustCompile(`(?i)\b(?:japanese|jap|jpn)\b`), language.Japanese},
	{regexp.MustCompile(`(?i)\b(?:korean|kor)\b`), language.Korean},
	{regexp.MustCompile(`(?i)\b(?:chinese|mandarin|cantonese|chi)\b`), language.Chinese},
	{regexp.MustCompile(`(?i)\b(?:russian|rus)\b`), language.Russian},
	{regexp.MustCompile(`(?i)\b(?:portuguese|dublado)\b`), language.Portuguese},
	{regexp.MustCompile(`(?i)\b(?:dutch|flemish)\b`), language.Dutch},
	{regexp.MustCompile(`(?i)\bswedish\b`), language.Swedish},
	{regexp.MustCompile(`(?i)\bnorwegian\b`), language.Norwegian},
	{regexp.MustCompile(`(?i)\bdanish\b`), language.Danish},
	{regexp.MustCompile(`(?i)\bfinnish\b`), language.Finnish},
	{regexp.MustCompile(`(?i)\bpolish\b`), language.Polish},
	{regexp.MustCompile(`(?i)\bhindi\b`), language.Hindi},
	{regexp.MustCompile(`(?i)\barabic\b`), language.Arabic},
	{regexp.MustCompile(`(?i)\bturkish\b`), language.Turkish},
	{regexp.MustCompile(`(?i)\bhebrew\b`), language.Hebrew},
	{regexp.MustCompile(`(?i)\bczech\b`), language.Czech},
	{regexp.MustCompile(`(?i)\bhungarian\b`), language.Hungarian},
	{regexp.MustCompile(`(?i)\bgreek\b`), language.Greek},
	{regexp.MustCompile(`(?i)\bukrainian\b`), language.Ukrainian},
}

// videoAttributes holds the video-related tokens found in a name.
type videoAttributes struct {
	resolution models.Resolution
	source     models.Source
	remux      bool
	codec      string
}

func (v videoAttributes) found() bool {
	return v.resolution != models.ResolutionUnknown || v.source != models.SourceUnknown || v.remux
}

func matchVideo(s string) videoAttributes {
	var v videoAttributes

	// Last resolution tag wins.
	if all := resolutionPattern.FindAllStringSubmatch(s, -1); len(all) > 0 {
		last := all[len(all)-1]
		for _, group := range last[1:] {
			if group != "" {
				v.resolution = models.ParseResolution(group)
				break
			}
		}
	}

	for _, sp := range sourcePatterns {
		if sp.pattern.MatchString(s) {
			v.source = sp.source
			break
		}
	}

	v.remux = remuxPattern.MatchString(s)

	for _, cp := range codecPatterns {
		if cp.pattern.MatchString(s) {
			v.codec = cp.name
			break
		}
	}
	return v
}

// matchAudio returns the audio quality name found in s, if any.
func matchAudio(s string) string {
	switch {
	case flacPattern.MatchString(s) && hiResPattern.MatchString(s):
		return "FLAC 24bit"
	case flacPattern.MatchString(s):
		return "FLAC"
	case alacPattern.MatchString(s):
		return "ALAC"
	case wavPattern.MatchString(s):
		return "WAV"
	case v0Pattern.MatchString(s):
		return "MP3-VBR-V0"
	}
	if m := bitratePattern.FindStringSubmatch(s); m != nil {
		return "MP3-" + m[1]
	}
	switch {
	case mp3Pattern.MatchString(s):
		return "MP3-192"
	case aacPattern.MatchString(s):
		return "AAC"
	case vorbisPattern.MatchString(s):
		return "OGG Vorbis"
	}
	return ""
}

// matchBook returns the book format found in s, if any.
func matchBook(s string) string {
	if m := bookFormatPattern.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// matchRevision reads proper/repack/REAL/version markers.
func matchRevision(s string) (models.Revision, bool) {
	rev := models.DefaultRevision()
	found := false

	if m := versionPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rev.Version = n
			found = true
		}
	}
	proper := properPattern.MatchString(s)
	repack := repackPattern.MatchString(s)
	if proper || repack {
		found = true
		if rev.Version < 2 {
			rev.Version = 2
		}
		rev.IsRepack = repack
	}
	if n := len(realPattern.FindAllString(s, -1)); n > 0 {
		rev.Real = n
		found = true
	}
	return rev, found
}

// matchLanguages returns the languages tagged in s, in order of appearance
// of the token table, without duplicates.
func matchLanguages(s string) []language.Tag {
	var out []language.Tag
	seen := make(map[language.Tag]bool)
	for _, lt := range languageTokens {
		if seen[lt.tag] || !lt.pattern.MatchString(s) {
			continue
		}
		seen[lt.tag] = true
		out = append(out, lt.tag)
	}
	return out
}

func matchEdition(s string) string {
	m := editionPattern.FindString(s)
	if m == "" {
		return ""
	}
	words := strings.FieldsFunc(m, func(r rune) bool { return r == '.' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
