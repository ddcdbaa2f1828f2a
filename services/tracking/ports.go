package tracking

import (
	"context"

	"novagrab/config"
	"novagrab/models"
)

//go:generate mockgen -source=ports.go -destination=mocks_test.go -package=tracking

// DownloadClient is the part of a download client the tracker polls.
type DownloadClient interface {
	Name() string
	Status(ctx context.Context, id string) (models.ClientStatus, error)
	List(ctx context.Context) ([]models.ClientStatus, error)
	Remove(ctx context.Context, id string, deleteData bool) error
}

// Importer moves a completed download into the library and returns the
// quality that ended up there. Errors wrapping ErrImportRejected block the
// download; any other error is retried on the next poll.
type Importer interface {
	Import(ctx context.Context, td models.TrackedDownload) (models.QualityModel, error)
}

// Researcher looks for a replacement after a failed download was blocklisted.
type Researcher interface {
	Research(ctx context.Context, criteria models.SearchCriteria) error
}

// Ledger is the history the tracker records its outcomes in.
type Ledger interface {
	Append(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error)
	AddBlocklist(ctx context.Context, entry models.BlocklistEntry) (models.BlocklistEntry, error)
	ByDownloadID(ctx context.Context, downloadID string) ([]models.HistoryRecord, error)
	BlocklistForEntity(ctx context.Context, entityID string) ([]models.BlocklistEntry, error)
}

type settingsProvider interface {
	Load() (config.Settings, error)
}
