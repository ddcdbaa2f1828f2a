// Package augment refines parsed release information with side-channel
// signals. Every augmenter works on copies and never lowers the confidence
// of a field.
package augment

import (
	"log"

	"novagrab/models"
)

// Signal is extra evidence about a release beyond its name.
type Signal interface {
	signalKind() string
}

// Augmenter refines ParsedReleaseInfo from one kind of signal. Augment
// returns ok=false when the signal adds nothing.
type Augmenter interface {
	Name() string
	Confidence() models.Confidence
	Augment(info models.ParsedReleaseInfo, signal Signal) (models.ParsedReleaseInfo, bool)
}

// Pipeline applies augmenters in order.
type Pipeline struct {
	augmenters []Augmenter
}

// NewPipeline returns a pipeline running augmenters in the given order.
func NewPipeline(augmenters ...Augmenter) *Pipeline {
	return &Pipeline{augmenters: augmenters}
}

// Default returns the media-info augmenter followed by the grab-history one.
func Default(table *models.QualityTable) *Pipeline {
	return NewPipeline(NewMediaInfo(table), NewGrabHistory(table))
}

// Apply runs every augmenter against every signal and returns the refined
// copy. A result that would lower any confidence, or overwrite a value the
// augmenter does not outrank, is discarded.
func (p *Pipeline) Apply(info models.ParsedReleaseInfo, signals ...Signal) models.ParsedReleaseInfo {
	current := info
	for _, signal := range signals {
		if signal == nil {
			continue
		}
		for _, a := range p.augmenters {
			next, ok := a.Augment(current, signal)
			if !ok {
				continue
			}
			if !monotonic(current, next, a.Confidence()) {
				log.Printf("[augment] %s tried to override stronger fields for %q, ignoring", a.Name(), info.ReleaseTitle)
				continue
			}
			current = next
		}
	}
	return current
}

// monotonic rejects results that lower a confidence or change a value held
// at a confidence above the augmenter's own.
func monotonic(before, after models.ParsedReleaseInfo, level models.Confidence) bool {
	pairs := [][2]models.Confidence{
		{before.Quality.QualityConfidence, after.Quality.QualityConfidence},
		{before.Quality.ResolutionConfidence, after.Quality.ResolutionConfidence},
		{before.Quality.RevisionConfidence, after.Quality.RevisionConfidence},
		{before.LanguageConfidence, after.LanguageConfidence},
	}
	for _, p := range pairs {
		if !p[1].AtLeast(p[0]) {
			return false
		}
	}
	bq, aq := before.Quality, after.Quality
	if bq.ResolutionConfidence.Compare(level) > 0 && bq.Quality.Resolution != aq.Quality.Resolution {
		return false
	}
	if bq.QualityConfidence.Compare(level) > 0 && bq.Quality.ID != aq.Quality.ID {
		return false
	}
	if bq.RevisionConfidence.Compare(level) > 0 && bq.Revision.Compare(aq.Revision) != 0 {
		return false
	}
	if before.LanguageConfidence.Compare(level) > 0 && !sameLanguages(before, after) {
		return false
	}
	return true
}

func sameLanguages(a, b models.ParsedReleaseInfo) bool {
	if len(a.Languages) != len(b.Languages) {
		return false
	}
	for i := range a.Languages {
		if a.Languages[i] != b.Languages[i] {
			return false
		}
	}
	return true
}

// outranks reports whether a value at confidence provided may fill a field
// currently held at confidence current without replacing an equal one.
func outranks(provided, current models.Confidence) bool {
	return provided.Compare(current) > 0
}
