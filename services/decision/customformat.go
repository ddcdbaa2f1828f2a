package decision

import (
	"fmt"
	"regexp"

	"novagrab/models"
)

// FormatSet holds compiled custom formats.
type FormatSet struct {
	formats []compiledFormat
}

type compiledFormat struct {
	name  string
	specs []compiledCondition
}

type compiledCondition struct {
	re       *regexp.Regexp
	negate   bool
	required bool
}

// CompileFormats compiles every condition pattern case-insensitively.
func CompileFormats(formats []models.CustomFormat) (*FormatSet, error) {
	set := &FormatSet{}
	for _, f := range formats {
		cf := compiledFormat{name: f.Name}
		for _, spec := range f.Specs {
			re, err := regexp.Compile("(?i)" + spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("custom format %q condition %q: %w", f.Name, spec.Name, err)
			}
			cf.specs = append(cf.specs, compiledCondition{re: re, negate: spec.Negate, required: spec.Required})
		}
		set.formats = append(set.formats, cf)
	}
	return set, nil
}

// Match returns the names of the formats title satisfies. A format matches
// when every required condition holds and, if it has optional conditions, at
// least one of those holds too.
func (s *FormatSet) Match(title string) []string {
	if s == nil {
		return nil
	}
	var names []string
	for _, f := range s.formats {
		if f.matches(title) {
			names = append(names, f.name)
		}
	}
	return names
}

func (f compiledFormat) matches(title string) bool {
	if len(f.specs) == 0 {
		return false
	}
	optional, optionalHit := 0, false
	for _, c := range f.specs {
		hit := c.re.MatchString(title) != c.negate
		if c.required {
			if !hit {
				return false
			}
			continue
		}
		optional++
		if hit {
			optionalHit = true
		}
	}
	return optional == 0 || optionalHit
}

// Score sums the profile scores of the matched formats.
func Score(profile models.QualityProfile, formats []string) int {
	total := 0
	for _, name := range formats {
		total += profile.FormatScores[name]
	}
	return total
}

// annotate attaches matched formats and their score to c.
func annotate(c models.Candidate, in *Input) models.Candidate {
	c.CustomFormats = in.Formats.Match(c.Release.Title)
	c.CustomFormatScore = Score(in.Profile, c.CustomFormats)
	return c
}
