package decision

import (
	"strings"
	"time"

	"novagrab/config"
	"novagrab/models"
)

// HistoryView is the read-only history and blocklist state of one search
// cycle.
type HistoryView interface {
	Blocklisted(release models.RawRelease) (models.BlocklistEntry, bool)
	History(entityID string) []models.HistoryRecord
}

// Input is everything a spec may consult besides the candidate. One Input is
// built per search cycle and shared read-only by all evaluations.
type Input struct {
	Criteria    models.SearchCriteria
	Profile     models.QualityProfile
	Definitions []models.QualityDefinition
	Delay       models.DelayProfile
	History     HistoryView
	Indexers    map[string]config.IndexerConfig
	Required    *TermSet
	Forbidden   *TermSet
	Formats     *FormatSet
	Qualities   *models.QualityTable
	Now         time.Time
}

func (in *Input) definition(quality string) (models.QualityDefinition, bool) {
	for _, d := range in.Definitions {
		if strings.EqualFold(d.Quality, quality) {
			return d, true
		}
	}
	return models.QualityDefinition{}, false
}

func (in *Input) indexer(id string) (config.IndexerConfig, bool) {
	idx, ok := in.Indexers[strings.ToLower(strings.TrimSpace(id))]
	return idx, ok
}

func indexerMap(indexers []config.IndexerConfig) map[string]config.IndexerConfig {
	out := make(map[string]config.IndexerConfig, len(indexers))
	for _, idx := range indexers {
		out[strings.ToLower(strings.TrimSpace(idx.ID))] = idx
	}
	return out
}
