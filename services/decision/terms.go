package decision

import (
	"fmt"
	"regexp"
	"strings"
)

// TermSet matches release titles against user terms. A term wrapped in
// slashes ("/x26[45]/") is a case-insensitive regular expression; anything
// else is a case-insensitive substring.
type TermSet struct {
	terms []term
}

type term struct {
	raw string
	re  *regexp.Regexp
}

func CompileTerms(values []string) (*TermSet, error) {
	set := &TermSet{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t := term{raw: v}
		if len(v) > 2 && strings.HasPrefix(v, "/") && strings.HasSuffix(v, "/") {
			re, err := regexp.Compile("(?i)" + v[1:len(v)-1])
			if err != nil {
				return nil, fmt.Errorf("term %q: %w", v, err)
			}
			t.re = re
		}
		set.terms = append(set.terms, t)
	}
	return set, nil
}

// Empty reports whether the set has no terms.
func (s *TermSet) Empty() bool {
	return s == nil || len(s.terms) == 0
}

// FirstMatch returns the first term contained in title.
func (s *TermSet) FirstMatch(title string) (string, bool) {
	if s == nil {
		return "", false
	}
	lower := strings.ToLower(title)
	for _, t := range s.terms {
		if t.re != nil {
			if t.re.MatchString(title) {
				return t.raw, true
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(t.raw)) {
			return t.raw, true
		}
	}
	return "", false
}
