package tracking

import (
	"errors"
	"fmt"

	"novagrab/models"
)

var (
	ErrInvalidTransition = errors.New("invalid download state transition")
	ErrNotTracked        = errors.New("download is not tracked")
	ErrAlreadyTracked    = errors.New("download is already tracked")
	ErrDownloadIDMissing = errors.New("download id is required")
	// ErrImportRejected is returned by importers when the payload can not be
	// matched to a library entity or fails the import checks. The download
	// then waits for manual action instead of being retried.
	ErrImportRejected = errors.New("import rejected")
)

// transitions lists every allowed state change. Imported is only reachable
// through ImportPending and Importing.
var transitions = map[models.DownloadState][]models.DownloadState{
	models.DownloadStateDownloading: {
		models.DownloadStateImportPending,
		models.DownloadStateImportBlocked,
		models.DownloadStateFailed,
		models.DownloadStateRemoved,
	},
	models.DownloadStateImportPending: {
		models.DownloadStateImporting,
		models.DownloadStateFailed,
		models.DownloadStateRemoved,
	},
	models.DownloadStateImporting: {
		models.DownloadStateImported,
		models.DownloadStateImportBlocked,
		models.DownloadStateImportPending,
	},
	models.DownloadStateImportBlocked: {
		models.DownloadStateImportPending,
		models.DownloadStateFailed,
		models.DownloadStateRemoved,
	},
	models.DownloadStateFailed: {
		models.DownloadStateBlocklisted,
		models.DownloadStateRemoved,
	},
	models.DownloadStateBlocklisted: {
		models.DownloadStateRemoved,
	},
}

// CanTransition reports whether a download may move from one state to another.
func CanTransition(from, to models.DownloadState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.DownloadState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
