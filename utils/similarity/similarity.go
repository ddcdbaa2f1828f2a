package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

var articles = map[string]struct{}{"a": {}, "an": {}, "the": {}}

// CleanTitle folds a title into the comparison form used for library lookups:
// ASCII, lowercase, "&" spelled out, punctuation dropped, leading article
// removed and words joined without separators.
func CleanTitle(title string) string {
	words := strings.Fields(Normalize(title))
	if len(words) > 1 {
		if _, ok := articles[words[0]]; ok {
			words = words[1:]
		}
	}
	return strings.Join(words, "")
}

// Normalize lowercases a title, transliterates it to ASCII and replaces
// separators with single spaces.
func Normalize(s string) string {
	s = strings.TrimSpace(unidecode.Unidecode(s))
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns 1 minus the normalised edit distance between the two
// titles, in [0, 1]. A title that is a substantial word-aligned suffix of the
// other ("Studio's Title" vs "Title") scores at least 0.9.
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if score := suffixScore(a, b); score > 0 {
		return score
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(Distance(ra, rb))/float64(longest)
}

func suffixScore(a, b string) float64 {
	long, short := a, b
	if len(short) > len(long) {
		long, short = short, long
	}
	if !strings.HasSuffix(long, short) {
		return 0
	}
	cut := len(long) - len(short)
	if cut > 0 && long[cut-1] != ' ' {
		return 0
	}
	ratio := float64(len(short)) / float64(len(long))
	if ratio < 0.6 {
		return 0
	}
	return 0.9 + ratio*0.1
}

// Distance is the Levenshtein distance between two rune slices, computed
// with two rolling rows.
func Distance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
