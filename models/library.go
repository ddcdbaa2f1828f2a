package models

import "strings"

// EntityKind is the type of library item a release can belong to.
type EntityKind string

const (
	EntityKindMovie  EntityKind = "movie"
	EntityKindSeries EntityKind = "series"
	EntityKindArtist EntityKind = "artist"
	EntityKindAlbum  EntityKind = "album"
	EntityKindBook   EntityKind = "book"
)

// LibraryEntity is an item the user wants in their library.
type LibraryEntity struct {
	ID              string        `json:"id"`
	Kind            EntityKind    `json:"kind"`
	Title           string        `json:"title"`
	Year            int           `json:"year,omitempty"`
	AlternateTitles []string      `json:"alternateTitles,omitempty"`
	QualityProfile  string        `json:"qualityProfile,omitempty"`
	CurrentQuality  *QualityModel `json:"currentQuality,omitempty"`
	RuntimeMinutes  int           `json:"runtimeMinutes,omitempty"`
	Monitored       bool          `json:"monitored"`
	Path            string        `json:"path,omitempty"`
}

// SearchCriteria describes what a search cycle is looking for.
type SearchCriteria struct {
	Entity         LibraryEntity     `json:"entity"`
	Season         int               `json:"season,omitempty"`
	Episodes       []int             `json:"episodes,omitempty"`
	MinimumSeeders *int              `json:"minimumSeeders,omitempty"`
	RequiredFlags  []string          `json:"requiredFlags,omitempty"`
	ForbiddenFlags []string          `json:"forbiddenFlags,omitempty"`
	KnownBad       []ReleaseIdentity `json:"knownBad,omitempty"`
	UserInvoked    bool              `json:"userInvoked,omitempty"`
}

// IsKnownBad reports whether id was already rejected by an earlier search.
func (c SearchCriteria) IsKnownBad(id ReleaseIdentity) bool {
	for _, bad := range c.KnownBad {
		if bad.GUID == "" {
			continue
		}
		if bad.GUID == id.GUID && (bad.IndexerID == "" || strings.EqualFold(bad.IndexerID, id.IndexerID)) {
			return true
		}
	}
	return false
}

// WithKnownBad returns a copy that also excludes id.
func (c SearchCriteria) WithKnownBad(id ReleaseIdentity) SearchCriteria {
	out := c
	out.KnownBad = append(append([]ReleaseIdentity(nil), c.KnownBad...), id)
	return out
}
