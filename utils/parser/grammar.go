package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// titleMatch is what a title grammar extracts from the part of a name that
// precedes the attribute tokens.
type titleMatch struct {
	title      string
	artist     string
	album      string
	year       int
	season     int
	episodes   []int
	absolute   int
	fullSeason bool
	airDate    string
	// end is the offset in the body where the title text stops.
	end int
}

// grammarInput carries facts a grammar may use to decide whether it applies.
type grammarInput struct {
	lead  string
	video bool
}

type grammar struct {
	name  string
	match func(body string, in grammarInput) (titleMatch, bool)
}

// grammars are tried in order, most specific first. The first one that
// yields a non-empty title wins.
var grammars = []grammar{
	{name: "anime", match: matchAnime},
	{name: "episode", match: matchEpisode},
	{name: "season", match: matchSeason},
	{name: "daily", match: matchDaily},
	{name: "artist-album", match: matchArtistAlbum},
	{name: "title-year", match: matchTitleYear},
	{name: "fallback", match: matchFallback},
}

var (
	animePattern   = regexp.MustCompile(`^(.+?)\s+-\s+(\d{2,4})(?:v\d)?(?:[\s(\[]|$)`)
	episodePattern = regexp.MustCompile(`(?i)^(.+?)[ .-]+S(\d{1,2})[ .-]?E(\d{1,3})((?:-?E\d{1,3}|-\d{1,3}\b)*)`)
	crossPattern   = regexp.MustCompile(`(?i)^(.+?)[ .-]+(\d{1,2})x(\d{2,3})\b`)
	extraEpisode   = regexp.MustCompile(`(?i)(-?)E?(\d{1,3})`)
	seasonPattern  = regexp.MustCompile(`(?i)^(.+?)[ .-]+(?:S(\d{1,2})|Season[ .-]?(\d{1,2}))\b`)
	dailyPattern   = regexp.MustCompile(`^(.+?)[ .-]+((?:19|20)\d{2})[ .-](0[1-9]|1[0-2])[ .-](0[1-9]|[12]\d|3[01])\b`)
	artistAlbum    = regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`)
	yearPattern    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	trailingYear   = regexp.MustCompile(`[\s.(\[]+((?:19|20)\d{2})[)\]]?$`)
)

const titleSeparators = " .-_([{"

func matchAnime(body string, in grammarInput) (titleMatch, bool) {
	if in.lead == "" || tokenPattern.MatchString(in.lead) {
		return titleMatch{}, false
	}
	m := animePattern.FindStringSubmatchIndex(body)
	if m == nil {
		return titleMatch{}, false
	}
	title := cleanTitleText(body[m[2]:m[3]])
	abs, _ := strconv.Atoi(body[m[4]:m[5]])
	if title == "" || abs == 0 {
		return titleMatch{}, false
	}
	return titleMatch{title: title, absolute: abs, end: m[3]}, true
}

func matchEpisode(body string, _ grammarInput) (titleMatch, bool) {
	if m := episodePattern.FindStringSubmatchIndex(body); m != nil {
		season, _ := strconv.Atoi(body[m[4]:m[5]])
		first, _ := strconv.Atoi(body[m[6]:m[7]])
		episodes := []int{first}
		if m[8] >= 0 {
			episodes = expandEpisodes(first, body[m[8]:m[9]])
		}
		tm := titleMatch{season: season, episodes: episodes, end: m[3]}
		tm.title, tm.year = splitTrailingYear(body[m[2]:m[3]])
		if tm.title != "" {
			return tm, true
		}
	}
	if m := crossPattern.FindStringSubmatchIndex(body); m != nil {
		season, _ := strconv.Atoi(body[m[4]:m[5]])
		episode, _ := strconv.Atoi(body[m[6]:m[7]])
		tm := titleMatch{season: season, episodes: []int{episode}, end: m[3]}
		tm.title, tm.year = splitTrailingYear(body[m[2]:m[3]])
		if tm.title != "" {
			return tm, true
		}
	}
	return titleMatch{}, false
}

// expandEpisodes reads "E02E03" and "-E05" / "-05" ranges that follow the
// first episode number.
func expandEpisodes(first int, rest string) []int {
	episodes := []int{first}
	last := first
	for _, m := range extraEpisode.FindAllStringSubmatch(rest, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= 0 {
			continue
		}
		if m[1] == "-" && n > last {
			for e := last + 1; e <= n; e++ {
				episodes = append(episodes, e)
			}
		} else if n != last {
			episodes = append(episodes, n)
		}
		last = n
	}
	return episodes
}

func matchSeason(body string, _ grammarInput) (titleMatch, bool) {
	m := seasonPattern.FindStringSubmatchIndex(body)
	if m == nil {
		return titleMatch{}, false
	}
	var digits string
	if m[4] >= 0 {
		digits = body[m[4]:m[5]]
	} else {
		digits = body[m[6]:m[7]]
	}
	season, _ := strconv.Atoi(digits)
	tm := titleMatch{season: season, fullSeason: true, end: m[3]}
	tm.title, tm.year = splitTrailingYear(body[m[2]:m[3]])
	return tm, tm.title != ""
}

func matchDaily(body string, _ grammarInput) (titleMatch, bool) {
	m := dailyPattern.FindStringSubmatch(body)
	if m == nil {
		return titleMatch{}, false
	}
	title := cleanTitleText(m[1])
	if title == "" {
		return titleMatch{}, false
	}
	year, _ := strconv.Atoi(m[2])
	return titleMatch{
		title:   title,
		year:    year,
		airDate: fmt.Sprintf("%s-%s-%s", m[2], m[3], m[4]),
		end:     len(m[1]),
	}, true
}

func matchArtistAlbum(body string, in grammarInput) (titleMatch, bool) {
	if in.video {
		return titleMatch{}, false
	}
	m := artistAlbum.FindStringSubmatchIndex(body)
	if m == nil {
		return titleMatch{}, false
	}
	artist := cleanTitleText(body[m[2]:m[3]])
	rawAlbum := strings.TrimRight(body[m[4]:m[5]], titleSeparators)
	year := 0
	if y := trailingYear.FindStringSubmatchIndex(rawAlbum); y != nil {
		year, _ = strconv.Atoi(rawAlbum[y[2]:y[3]])
		rawAlbum = rawAlbum[:y[0]]
	}
	album := cleanTitleText(rawAlbum)
	if artist == "" || album == "" {
		return titleMatch{}, false
	}
	return titleMatch{
		title:  album,
		artist: artist,
		album:  album,
		year:   year,
		end:    m[4] + len(rawAlbum),
	}, true
}

// matchTitleYear takes the last plausible year before the attribute tokens,
// so titles that contain a year ("Blade Runner 2049") keep it.
func matchTitleYear(body string, _ grammarInput) (titleMatch, bool) {
	years := yearPattern.FindAllStringIndex(body, -1)
	for i := len(years) - 1; i >= 0; i-- {
		start, end := years[i][0], years[i][1]
		title := cleanTitleText(body[:start])
		if title == "" {
			continue
		}
		year, _ := strconv.Atoi(body[start:end])
		return titleMatch{title: title, year: year, end: start}, true
	}
	return titleMatch{}, false
}

func matchFallback(body string, _ grammarInput) (titleMatch, bool) {
	return titleMatch{title: cleanTitleText(body), end: len(body)}, true
}

// splitTrailingYear separates "Show 2005" into its title and year.
func splitTrailingYear(raw string) (string, int) {
	raw = strings.TrimRight(raw, titleSeparators)
	if m := trailingYear.FindStringSubmatchIndex(raw); m != nil && m[0] > 0 {
		if title := cleanTitleText(raw[:m[0]]); title != "" {
			year, _ := strconv.Atoi(raw[m[2]:m[3]])
			return title, year
		}
	}
	return cleanTitleText(raw), 0
}

// cleanTitleText turns separator-joined release text into a readable title.
func cleanTitleText(raw string) string {
	s := strings.NewReplacer(".", " ", "_", " ").Replace(raw)
	s = strings.Trim(strings.Join(strings.Fields(s), " "), titleSeparators)
	return strings.Join(strings.Fields(s), " ")
}
