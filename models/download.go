package models

import "time"

// DownloadState is the lifecycle position of a tracked download.
type DownloadState string

const (
	DownloadStateDownloading   DownloadState = "downloading"
	DownloadStateImportPending DownloadState = "importPending"
	DownloadStateImporting     DownloadState = "importing"
	DownloadStateImported      DownloadState = "imported"
	DownloadStateImportBlocked DownloadState = "importBlocked"
	DownloadStateFailed        DownloadState = "failed"
	DownloadStateBlocklisted   DownloadState = "blocklisted"
	DownloadStateRemoved       DownloadState = "removed"
)

// Terminal reports whether a download in this state leaves the active set.
func (s DownloadState) Terminal() bool {
	switch s {
	case DownloadStateImported, DownloadStateBlocklisted, DownloadStateRemoved:
		return true
	}
	return false
}

// ClientState is what the download client reports about an item.
type ClientState string

const (
	ClientStateQueued      ClientState = "queued"
	ClientStateDownloading ClientState = "downloading"
	ClientStatePaused      ClientState = "paused"
	ClientStateCompleted   ClientState = "completed"
	ClientStateWarning     ClientState = "warning"
	ClientStateFailed      ClientState = "failed"
	ClientStateUnknown     ClientState = "unknown"
)

// ClientStatus is one status snapshot from a download client.
type ClientStatus struct {
	ExternalID string        `json:"externalId"`
	Title      string        `json:"title"`
	State      ClientState   `json:"state"`
	SizeBytes  int64         `json:"sizeBytes"`
	SizeLeft   int64         `json:"sizeLeft"`
	ETA        time.Duration `json:"eta"`
	Message    string        `json:"message,omitempty"`
	OutputPath string        `json:"outputPath,omitempty"`
}

// StatusMessage is a warning or error collected while tracking a download.
type StatusMessage struct {
	Cause  string    `json:"cause"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// TrackedDownload is the live view of a grabbed release.
type TrackedDownload struct {
	ID             string          `json:"id"`
	Client         string          `json:"client"`
	State          DownloadState   `json:"state"`
	Candidate      Candidate       `json:"candidate"`
	Criteria       SearchCriteria  `json:"criteria"`
	SizeBytes      int64           `json:"sizeBytes"`
	SizeLeft       int64           `json:"sizeLeft"`
	ETA            time.Duration   `json:"eta"`
	ClientState    ClientState     `json:"clientState"`
	OutputPath     string          `json:"outputPath,omitempty"`
	StatusMessages []StatusMessage `json:"statusMessages,omitempty"`
	GrabbedAt      time.Time       `json:"grabbedAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with t.
func (t TrackedDownload) Clone() TrackedDownload {
	out := t
	out.StatusMessages = append([]StatusMessage(nil), t.StatusMessages...)
	out.Candidate.Rejections = append([]Rejection(nil), t.Candidate.Rejections...)
	out.Candidate.Parsed = t.Candidate.Parsed.Clone()
	return out
}

// Progress returns the completed fraction in [0, 1].
func (t TrackedDownload) Progress() float64 {
	if t.SizeBytes <= 0 {
		return 0
	}
	done := float64(t.SizeBytes-t.SizeLeft) / float64(t.SizeBytes)
	if done < 0 {
		return 0
	}
	if done > 1 {
		return 1
	}
	return done
}

// Transition is emitted every time a tracked download changes state.
type Transition struct {
	ID         string        `json:"id"`
	DownloadID string        `json:"downloadId"`
	From       DownloadState `json:"from"`
	To         DownloadState `json:"to"`
	At         time.Time     `json:"at"`
	Reason     string        `json:"reason,omitempty"`
}
