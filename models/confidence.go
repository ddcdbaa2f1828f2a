package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence describes how strongly a parsed field is trusted. The order is
// total: Fallback < Tag < MediaInfo.
type Confidence int

const (
	ConfidenceFallback Confidence = iota
	ConfidenceTag
	ConfidenceMediaInfo
)

var confidenceNames = [...]string{
	ConfidenceFallback:  "fallback",
	ConfidenceTag:       "tag",
	ConfidenceMediaInfo: "mediainfo",
}

func (c Confidence) String() string {
	if c < ConfidenceFallback || c > ConfidenceMediaInfo {
		return fmt.Sprintf("confidence(%d)", int(c))
	}
	return confidenceNames[c]
}

// Valid reports whether c is one of the known levels.
func (c Confidence) Valid() bool {
	return c >= ConfidenceFallback && c <= ConfidenceMediaInfo
}

// Compare returns -1, 0 or 1. All confidence ordering goes through here.
func (c Confidence) Compare(other Confidence) int {
	switch {
	case c < other:
		return -1
	case c > other:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is greater than or equal to other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c.Compare(other) >= 0
}

// CanReplace reports whether a value carrying confidence c may overwrite a
// value currently held at confidence current.
func (c Confidence) CanReplace(current Confidence) bool {
	return c.AtLeast(current)
}

// MaxConfidence returns the higher of two levels.
func MaxConfidence(a, b Confidence) Confidence {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i, name := range confidenceNames {
		if strings.EqualFold(name, raw) {
			*c = Confidence(i)
			return nil
		}
	}
	return fmt.Errorf("unknown confidence %q", raw)
}
