package decision

import (
	"log"
	"strings"
	"time"

	"novagrab/models"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
)

// Rejection reasons.
const (
	ReasonUnknownEntity        = "UnknownEntity"
	ReasonWrongEntity          = "WrongEntity"
	ReasonWrongSeason          = "WrongSeason"
	ReasonWrongEpisode         = "WrongEpisode"
	ReasonEpisodicRelease      = "EpisodicRelease"
	ReasonKnownBad             = "KnownBad"
	ReasonProtocolDisabled     = "ProtocolDisabled"
	ReasonMissingIndexerFlag   = "MissingIndexerFlag"
	ReasonForbiddenIndexerFlag = "ForbiddenIndexerFlag"
	ReasonNotEnoughSeeders     = "NotEnoughSeeders"
	ReasonLanguageNotWanted    = "LanguageNotWanted"
	ReasonQualityNotWanted     = "QualityNotWanted"
	ReasonSizeOutOfRange       = "SizeOutOfRange"
	ReasonForbiddenTerm        = "ForbiddenTerm"
	ReasonRequiredTermMissing  = "RequiredTermMissing"
	ReasonCustomFormatScore    = "CustomFormatScoreTooLow"
	ReasonBlocklisted          = "Blocklisted"
	ReasonAlreadyGrabbed       = "AlreadyGrabbed"
	ReasonUpgradesDisabled     = "UpgradesDisabled"
	ReasonCutoffMet            = "CutoffMet"
	ReasonNotAnUpgrade         = "NotAnUpgrade"
	ReasonDelayed              = "Delayed"
)

// DefaultSpecs returns the search chain in evaluation order.
func DefaultSpecs() []Spec {
	return []Spec{
		EntityResolved{},
		EntityMatch{},
		SeasonMatch{},
		KnownBadRelease{},
		ProtocolAllowed{},
		IndexerFlags{},
		Seeders{},
		Language{},
		QualityAllowed{},
		Size{},
		ForbiddenTerms{},
		RequiredTerms{},
		CustomFormatScore{},
		Blocklisted{},
		HistoryBetterOrEqual{},
		UpgradeAllowed{},
		Delay{},
	}
}

// ImportSpecs returns the subset re-run against a completed download.
func ImportSpecs() []Spec {
	return []Spec{
		EntityResolved{},
		EntityMatch{},
		SeasonMatch{},
		QualityAllowed{},
		UpgradeAllowed{},
	}
}

// EntityResolved rejects releases that match no library entity.
type EntityResolved struct{}

func (EntityResolved) Name() string   { return "EntityResolved" }
func (EntityResolved) FailFast() bool { return true }

func (EntityResolved) Evaluate(c models.Candidate, _ *Input) Verdict {
	if c.Entity == nil {
		return Reject(ReasonUnknownEntity, "no library entity matches %q", c.Parsed.Title)
	}
	return Accept()
}

// EntityMatch rejects releases resolved to a different entity than the one
// being searched for.
type EntityMatch struct{}

func (EntityMatch) Name() string { return "EntityMatch" }

func (EntityMatch) Evaluate(c models.Candidate, in *Input) Verdict {
	want := in.Criteria.Entity.ID
	if c.Entity == nil || want == "" || c.Entity.ID == want {
		return Accept()
	}
	return Reject(ReasonWrongEntity, "release is for %q, wanted %q", c.Entity.Title, in.Criteria.Entity.Title)
}

// SeasonMatch checks season and episode markers against the criteria.
type SeasonMatch struct{}

func (SeasonMatch) Name() string { return "SeasonMatch" }

func (SeasonMatch) Evaluate(c models.Candidate, in *Input) Verdict {
	p := c.Parsed
	if in.Criteria.Entity.Kind != models.EntityKindSeries {
		if p.IsEpisodic() {
			return Reject(ReasonEpisodicRelease, "episodic release for a %s", in.Criteria.Entity.Kind)
		}
		return Accept()
	}
	if in.Criteria.Season > 0 && p.Season != in.Criteria.Season {
		if p.Season == 0 {
			return Reject(ReasonWrongSeason, "no season in release, wanted season %d", in.Criteria.Season)
		}
		return Reject(ReasonWrongSeason, "season %d, wanted season %d", p.Season, in.Criteria.Season)
	}
	if len(in.Criteria.Episodes) == 0 || p.FullSeason {
		return Accept()
	}
	for _, want := range in.Criteria.Episodes {
		if !containsInt(p.Episodes, want) {
			return Reject(ReasonWrongEpisode, "episodes %v, wanted %v", p.Episodes, in.Criteria.Episodes)
		}
	}
	return Accept()
}

// KnownBadRelease skips releases an earlier incremental search already
// rejected.
type KnownBadRelease struct{}

func (KnownBadRelease) Name() string { return "KnownBadRelease" }

func (KnownBadRelease) Evaluate(c models.Candidate, in *Input) Verdict {
	if in.Criteria.IsKnownBad(c.Release.Identity()) {
		return Reject(ReasonKnownBad, "release %s was rejected earlier", c.Release.GUID)
	}
	return Accept()
}

// ProtocolAllowed applies the delay profile's protocol switches.
type ProtocolAllowed struct{}

func (ProtocolAllowed) Name() string { return "ProtocolAllowed" }

func (ProtocolAllowed) Evaluate(c models.Candidate, in *Input) Verdict {
	if !in.Delay.Allows(c.Release.Protocol) {
		return Reject(ReasonProtocolDisabled, "%s releases are disabled", protocolName(c.Release.Protocol))
	}
	return Accept()
}

// IndexerFlags enforces required and forbidden indexer flags.
type IndexerFlags struct{}

func (IndexerFlags) Name() string { return "IndexerFlags" }

func (IndexerFlags) Evaluate(c models.Candidate, in *Input) Verdict {
	for _, flag := range in.Criteria.RequiredFlags {
		if !c.Release.HasFlag(flag) {
			return Reject(ReasonMissingIndexerFlag, "missing indexer flag %s", flag)
		}
	}
	for _, flag := range in.Criteria.ForbiddenFlags {
		if c.Release.HasFlag(flag) {
			return Reject(ReasonForbiddenIndexerFlag, "indexer flag %s is not allowed", flag)
		}
	}
	return Accept()
}

// Seeders enforces the minimum seeder count for torrents. The criteria
// override wins over the indexer setting. Releases from an indexer that is
// no longer configured are accepted, as are releases without a seeder count.
type Seeders struct{}

func (Seeders) Name() string { return "Seeders" }

func (Seeders) Evaluate(c models.Candidate, in *Input) Verdict {
	if c.Release.Protocol != models.ProtocolTorrent || c.Release.Seeders == nil {
		return Accept()
	}
	minimum := 0
	if in.Criteria.MinimumSeeders != nil {
		minimum = *in.Criteria.MinimumSeeders
	} else {
		idx, ok := in.indexer(c.Release.IndexerID)
		if !ok {
			log.Printf("[decision] indexer %q no longer configured, skipping seeder check for %q", c.Release.IndexerID, c.Release.Title)
			return Accept()
		}
		minimum = idx.MinimumSeeders
	}
	if seeders := *c.Release.Seeders; seeders < minimum {
		return Reject(ReasonNotEnoughSeeders, "%d seeders, minimum is %d", seeders, minimum)
	}
	return Accept()
}

// Language requires at least one release language to be in the profile.
type Language struct{}

func (Language) Name() string { return "Language" }

func (Language) Evaluate(c models.Candidate, in *Input) Verdict {
	if len(in.Profile.Languages) == 0 {
		return Accept()
	}
	for _, have := range c.Parsed.Languages {
		haveBase, _ := have.Base()
		for _, want := range in.Profile.Languages {
			wantTag, err := language.Parse(strings.TrimSpace(want))
			if err != nil {
				continue
			}
			if wantBase, _ := wantTag.Base(); wantBase == haveBase {
				return Accept()
			}
		}
	}
	return Reject(ReasonLanguageNotWanted, "languages %v not in %v", c.Parsed.Languages, in.Profile.Languages)
}

// QualityAllowed requires the parsed quality to be part of the profile.
type QualityAllowed struct{}

func (QualityAllowed) Name() string { return "QualityAllowed" }

func (QualityAllowed) Evaluate(c models.Candidate, in *Input) Verdict {
	q := c.Parsed.Quality.Quality
	if !in.Profile.Allows(q) {
		return Reject(ReasonQualityNotWanted, "%s is not wanted in profile %s", q.Name, in.Profile.Name)
	}
	return Accept()
}

// Size bounds the release size by the quality definition. Video bounds are
// per minute of runtime. Unknown sizes and unbounded definitions pass.
type Size struct{}

func (Size) Name() string { return "Size" }

func (Size) Evaluate(c models.Candidate, in *Input) Verdict {
	size := c.Release.SizeBytes
	if size <= 0 {
		return Accept()
	}
	def, ok := in.definition(c.Parsed.Quality.Quality.Name)
	if !ok || (def.MinSize <= 0 && def.MaxSize <= 0) {
		return Accept()
	}

	scale := 1.0
	if entity := c.Entity; entity != nil && entity.RuntimeMinutes > 0 {
		if c.Parsed.FullSeason {
			// the episode count of a pack is unknown
			return Accept()
		}
		episodes := len(c.Parsed.Episodes)
		if episodes == 0 {
			episodes = 1
		}
		scale = float64(entity.RuntimeMinutes * episodes)
	}

	minBytes := uint64(def.MinSize * scale * humanize.MiByte)
	maxBytes := uint64(def.MaxSize * scale * humanize.MiByte)
	if uint64(size) < minBytes {
		return Reject(ReasonSizeOutOfRange, "%s is smaller than minimum %s", humanize.IBytes(uint64(size)), humanize.IBytes(minBytes))
	}
	if def.MaxSize > 0 && uint64(size) > maxBytes {
		return Reject(ReasonSizeOutOfRange, "%s is larger than maximum %s", humanize.IBytes(uint64(size)), humanize.IBytes(maxBytes))
	}
	return Accept()
}

// ForbiddenTerms rejects titles containing a filter-out term.
type ForbiddenTerms struct{}

func (ForbiddenTerms) Name() string { return "ForbiddenTerms" }

func (ForbiddenTerms) Evaluate(c models.Candidate, in *Input) Verdict {
	if term, ok := in.Forbidden.FirstMatch(c.Release.Title); ok {
		return Reject(ReasonForbiddenTerm, "contains %q", term)
	}
	return Accept()
}

// RequiredTerms rejects titles containing none of the required terms.
type RequiredTerms struct{}

func (RequiredTerms) Name() string { return "RequiredTerms" }

func (RequiredTerms) Evaluate(c models.Candidate, in *Input) Verdict {
	if in.Required.Empty() {
		return Accept()
	}
	if _, ok := in.Required.FirstMatch(c.Release.Title); !ok {
		return Reject(ReasonRequiredTermMissing, "contains none of the required terms")
	}
	return Accept()
}

// CustomFormatScore enforces the profile's minimum custom format score.
type CustomFormatScore struct{}

func (CustomFormatScore) Name() string { return "CustomFormatScore" }

func (CustomFormatScore) Evaluate(c models.Candidate, in *Input) Verdict {
	if c.CustomFormatScore < in.Profile.MinimumCustomFormatScore {
		return Reject(ReasonCustomFormatScore, "score %d is below minimum %d", c.CustomFormatScore, in.Profile.MinimumCustomFormatScore)
	}
	return Accept()
}

// Blocklisted rejects releases that failed before, whatever their quality.
type Blocklisted struct{}

func (Blocklisted) Name() string { return "Blocklisted" }

func (Blocklisted) Evaluate(c models.Candidate, in *Input) Verdict {
	if in.History == nil {
		return Accept()
	}
	if entry, ok := in.History.Blocklisted(c.Release); ok {
		return Reject(ReasonBlocklisted, "blocklisted on %s: %s", entry.Date.Format(time.DateOnly), entry.Message)
	}
	return Accept()
}

// HistoryBetterOrEqual skips releases when an equal or better release was
// already grabbed and has neither failed nor been imported. User-invoked
// searches bypass it.
type HistoryBetterOrEqual struct{}

func (HistoryBetterOrEqual) Name() string { return "HistoryBetterOrEqual" }

func (HistoryBetterOrEqual) Evaluate(c models.Candidate, in *Input) Verdict {
	if in.Criteria.UserInvoked || in.History == nil || c.Entity == nil {
		return Accept()
	}
	records := in.History.History(c.Entity.ID)
	grab, ok := pendingGrab(records)
	if !ok {
		return Accept()
	}
	if compareQuality(in.Profile, c.Parsed.Quality, grab.Quality) <= 0 {
		return Reject(ReasonAlreadyGrabbed, "%s was already grabbed as %q", grab.Quality, grab.SourceTitle)
	}
	return Accept()
}

// pendingGrab returns the most recent grab that has not failed or been
// imported since.
func pendingGrab(records []models.HistoryRecord) (models.HistoryRecord, bool) {
	settled := make(map[string]bool)
	for _, rec := range records {
		switch rec.EventType {
		case models.HistoryGrabbed:
			if rec.DownloadID != "" && settled[rec.DownloadID] {
				continue
			}
			return rec, true
		case models.HistoryFailed, models.HistoryImported:
			if rec.DownloadID != "" {
				settled[rec.DownloadID] = true
			}
		}
	}
	return models.HistoryRecord{}, false
}

// UpgradeAllowed compares against the entity's existing file.
type UpgradeAllowed struct{}

func (UpgradeAllowed) Name() string { return "UpgradeAllowed" }

func (UpgradeAllowed) Evaluate(c models.Candidate, in *Input) Verdict {
	if c.Entity == nil || c.Entity.CurrentQuality == nil {
		return Accept()
	}
	current := *c.Entity.CurrentQuality
	candidate := c.Parsed.Quality
	if compareQuality(in.Profile, candidate, current) <= 0 {
		return Reject(ReasonNotAnUpgrade, "existing %s is equal or better than %s", current, candidate)
	}
	sameQuality := in.Profile.Ordinal(candidate.Quality) == in.Profile.Ordinal(current.Quality)
	if sameQuality {
		// proper and repack releases of the same quality are always taken
		return Accept()
	}
	if !in.Profile.UpgradeAllowed {
		return Reject(ReasonUpgradesDisabled, "upgrades are disabled in profile %s", in.Profile.Name)
	}
	if in.Profile.Ordinal(current.Quality) >= in.Profile.CutoffOrdinal() {
		return Reject(ReasonCutoffMet, "existing %s meets cutoff %s", current, in.Profile.Cutoff)
	}
	return Accept()
}

// Delay holds back fresh releases until the protocol delay has passed. User
// searches bypass it, as do releases at the profile's top quality when the
// profile allows that.
type Delay struct{}

func (Delay) Name() string { return "Delay" }

func (Delay) Evaluate(c models.Candidate, in *Input) Verdict {
	if in.Criteria.UserInvoked {
		return Accept()
	}
	var minutes int
	switch c.Release.Protocol {
	case models.ProtocolUsenet:
		minutes = in.Delay.UsenetDelayMinutes
	case models.ProtocolTorrent:
		minutes = in.Delay.TorrentDelayMinutes
	}
	if minutes <= 0 || c.Release.PublishDate.IsZero() {
		return Accept()
	}
	if in.Delay.BypassIfHighestQuality && in.Profile.Ordinal(c.Parsed.Quality.Quality) == len(in.Profile.Items) {
		return Accept()
	}
	delay := time.Duration(minutes) * time.Minute
	age := in.Now.Sub(c.Release.PublishDate)
	if age < delay {
		return Temporary(ReasonDelayed, "%s old, waiting %s", age.Truncate(time.Minute), delay)
	}
	return Accept()
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func protocolName(p models.Protocol) string {
	if p == models.ProtocolUnknown {
		return "unknown protocol"
	}
	return string(p)
}
