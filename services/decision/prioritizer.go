package decision

import (
	"math"
	"sort"

	"novagrab/models"
)

// Prioritizer orders accepted candidates, best first.
type Prioritizer struct {
	profile         models.QualityProfile
	preferred       models.Protocol
	seedingTiebreak bool
}

func NewPrioritizer(profile models.QualityProfile, preferred models.Protocol, seedingTiebreak bool) *Prioritizer {
	return &Prioritizer{profile: profile, preferred: preferred, seedingTiebreak: seedingTiebreak}
}

// QualityWeight ranks a quality within the profile with the revision as a
// secondary key.
func (p *Prioritizer) QualityWeight(q models.QualityModel) int {
	return qualityWeight(p.profile, q)
}

func qualityWeight(profile models.QualityProfile, q models.QualityModel) int {
	return profile.Ordinal(q.Quality)*100 + q.Revision.Real*10 + q.Revision.Version
}

// compareQuality orders two quality models by profile ordinal, then revision.
func compareQuality(profile models.QualityProfile, a, b models.QualityModel) int {
	oa, ob := profile.Ordinal(a.Quality), profile.Ordinal(b.Quality)
	switch {
	case oa > ob:
		return 1
	case oa < ob:
		return -1
	}
	return a.Revision.Compare(b.Revision)
}

// Less reports whether a should be grabbed before b. Keys in order: custom
// format score, quality weight, preferred protocol, then seeders (torrents
// with the seeding tiebreak) or size ascending.
func (p *Prioritizer) Less(a, b models.Candidate) bool {
	if a.CustomFormatScore != b.CustomFormatScore {
		return a.CustomFormatScore > b.CustomFormatScore
	}
	if wa, wb := p.QualityWeight(a.Parsed.Quality), p.QualityWeight(b.Parsed.Quality); wa != wb {
		return wa > wb
	}
	if pa, pb := a.Release.Protocol == p.preferred, b.Release.Protocol == p.preferred; pa != pb {
		return pa
	}
	if p.seedingTiebreak && a.Release.Protocol == models.ProtocolTorrent && b.Release.Protocol == models.ProtocolTorrent {
		if sa, sb := seeders(a.Release), seeders(b.Release); sa != sb {
			return sa > sb
		}
	}
	return sizeKey(a.Release) < sizeKey(b.Release)
}

// Sort orders candidates in place. Candidates with equal keys keep their
// original order.
func (p *Prioritizer) Sort(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return p.Less(candidates[i], candidates[j])
	})
}

func seeders(r models.RawRelease) int {
	if r.Seeders == nil {
		return 0
	}
	return *r.Seeders
}

// sizeKey sorts unknown sizes after known ones.
func sizeKey(r models.RawRelease) int64 {
	if r.SizeBytes <= 0 {
		return math.MaxInt64
	}
	return r.SizeBytes
}
