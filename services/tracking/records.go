package tracking

import (
	"encoding/json"
	"log"
	"strconv"

	"novagrab/models"
)

// Keys used in the free-form data of history records written for downloads.
const (
	DataCriteria       = "criteria"
	DataDownloadClient = "downloadClient"
	DataMessage        = "message"
	DataImportedPath   = "importedPath"
	DataSize           = "size"
	DataIndexer        = "indexer"
)

// GrabbedRecord builds the history record written when a download is
// handed to the client.
func GrabbedRecord(td models.TrackedDownload) models.HistoryRecord {
	rec := baseRecord(td, models.HistoryGrabbed)
	rec.Data[DataIndexer] = td.Candidate.Release.Indexer
	rec.Data[DataSize] = strconv.FormatInt(td.Candidate.Release.SizeBytes, 10)
	if data, err := json.Marshal(td.Criteria); err == nil {
		rec.Data[DataCriteria] = string(data)
	}
	return rec
}

func failedRecord(td models.TrackedDownload, message string) models.HistoryRecord {
	rec := baseRecord(td, models.HistoryFailed)
	rec.Data[DataMessage] = message
	return rec
}

func importedRecord(td models.TrackedDownload, quality models.QualityModel) models.HistoryRecord {
	rec := baseRecord(td, models.HistoryImported)
	rec.Quality = quality
	if td.OutputPath != "" {
		rec.Data[DataImportedPath] = td.OutputPath
	}
	return rec
}

func blocklistEntry(td models.TrackedDownload, message string) models.BlocklistEntry {
	release := td.Candidate.Release
	return models.BlocklistEntry{
		EntityID:    entityID(td),
		SourceTitle: release.Title,
		GUID:        release.GUID,
		IndexerID:   release.IndexerID,
		DownloadID:  td.ID,
		Protocol:    release.Protocol,
		Quality:     td.Candidate.Parsed.Quality,
		Message:     message,
	}
}

func baseRecord(td models.TrackedDownload, event models.HistoryEventType) models.HistoryRecord {
	release := td.Candidate.Release
	return models.HistoryRecord{
		EntityID:    entityID(td),
		EventType:   event,
		Quality:     td.Candidate.Parsed.Quality,
		Languages:   td.Candidate.Parsed.Languages,
		SourceTitle: release.Title,
		DownloadID:  td.ID,
		GUID:        release.GUID,
		IndexerID:   release.IndexerID,
		Protocol:    release.Protocol,
		Data:        map[string]string{DataDownloadClient: td.Client},
	}
}

func entityID(td models.TrackedDownload) string {
	if td.Criteria.Entity.ID != "" {
		return td.Criteria.Entity.ID
	}
	if td.Candidate.Entity != nil {
		return td.Candidate.Entity.ID
	}
	return ""
}

// restoreDownload rebuilds a tracked download from its grab record and the
// current client status.
func restoreDownload(grab models.HistoryRecord, st models.ClientStatus, client string) models.TrackedDownload {
	var criteria models.SearchCriteria
	if raw := grab.Data[DataCriteria]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
			log.Printf("[tracking] ignoring stored criteria of %s: %v", st.ExternalID, err)
			criteria = models.SearchCriteria{}
		}
	}
	if criteria.Entity.ID == "" {
		criteria.Entity.ID = grab.EntityID
	}
	size, _ := strconv.ParseInt(grab.Data[DataSize], 10, 64)
	if size == 0 {
		size = st.SizeBytes
	}
	entity := criteria.Entity

	return models.TrackedDownload{
		ID:     st.ExternalID,
		Client: client,
		Candidate: models.Candidate{
			Release: models.RawRelease{
				Title:     grab.SourceTitle,
				GUID:      grab.GUID,
				IndexerID: grab.IndexerID,
				Indexer:   grab.Data[DataIndexer],
				Protocol:  grab.Protocol,
				SizeBytes: size,
			},
			Parsed: models.ParsedReleaseInfo{
				ReleaseTitle: grab.SourceTitle,
				Quality:      grab.Quality,
				Languages:    grab.Languages,
			},
			Entity: &entity,
		},
		Criteria:  criteria,
		SizeBytes: st.SizeBytes,
		SizeLeft:  st.SizeLeft,
		GrabbedAt: grab.Date,
	}
}
