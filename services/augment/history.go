package augment

import (
	"novagrab/models"
)

// HistorySignal carries earlier ledger records for the same download.
type HistorySignal struct {
	Records []models.HistoryRecord
}

func (HistorySignal) signalKind() string { return "history" }

// GrabHistory fills fields that are still at fallback confidence from the
// most recent Grabbed record of the download. A resolution already known at
// a higher confidence is carried into the grabbed quality.
type GrabHistory struct {
	qualities *models.QualityTable
}

func NewGrabHistory(table *models.QualityTable) *GrabHistory {
	if table == nil {
		table = models.DefaultQualities()
	}
	return &GrabHistory{qualities: table}
}

func (g *GrabHistory) Name() string                  { return "GrabHistory" }
func (g *GrabHistory) Confidence() models.Confidence { return models.ConfidenceTag }

func (g *GrabHistory) Augment(info models.ParsedReleaseInfo, signal Signal) (models.ParsedReleaseInfo, bool) {
	var records []models.HistoryRecord
	switch s := signal.(type) {
	case HistorySignal:
		records = s.Records
	case *HistorySignal:
		if s == nil {
			return info, false
		}
		records = s.Records
	default:
		return info, false
	}

	grabbed, ok := latestGrab(records)
	if !ok {
		return info, false
	}

	q := info.Quality
	changed := false
	conf := g.Confidence()

	if next, ok := g.fillQuality(q, grabbed.Quality.Quality); ok {
		if next.ID != q.Quality.ID || q.QualityConfidence != conf {
			changed = true
		}
		q.Quality = next
		q.QualityConfidence = conf
		if next.Resolution != models.ResolutionUnknown && outranks(conf, q.ResolutionConfidence) {
			q.ResolutionConfidence = conf
		}
	}
	if outranks(conf, q.RevisionConfidence) && grabbed.Quality.Revision.Compare(models.DefaultRevision()) != 0 {
		q.Revision = grabbed.Quality.Revision
		q.RevisionConfidence = conf
		changed = true
	}

	out := info
	if changed {
		out = info.WithQuality(q)
	}
	if len(grabbed.Languages) > 0 && outranks(conf, info.LanguageConfidence) {
		out = out.WithLanguages(grabbed.Languages, conf)
		changed = true
	}
	if info.ReleaseGroup == "" {
		if group := grabbed.Data["releaseGroup"]; group != "" {
			out = out.WithReleaseGroup(group)
			changed = true
		}
	}
	if !changed {
		return info, false
	}
	return out, true
}

// fillQuality returns the grabbed quality adjusted to the current resolution
// when that resolution outranks the grab history.
func (g *GrabHistory) fillQuality(q models.QualityModel, grabbed models.Quality) (models.Quality, bool) {
	conf := g.Confidence()
	if grabbed.IsUnknown() || !outranks(conf, q.QualityConfidence) {
		return models.Quality{}, false
	}
	if q.ResolutionConfidence.Compare(conf) <= 0 || q.Quality.Resolution == grabbed.Resolution {
		return grabbed, true
	}
	if grabbed.Kind != models.QualityKindVideo {
		return models.Quality{}, false
	}
	adjusted := g.qualities.Video(grabbed.Source, q.Quality.Resolution, grabbed.Remux)
	if adjusted.IsUnknown() {
		return models.Quality{}, false
	}
	return adjusted, true
}

func latestGrab(records []models.HistoryRecord) (models.HistoryRecord, bool) {
	var best models.HistoryRecord
	found := false
	for _, r := range records {
		if r.EventType != models.HistoryGrabbed {
			continue
		}
		if !found || r.Date.After(best.Date) {
			best = r
			found = true
		}
	}
	return best, found
}
