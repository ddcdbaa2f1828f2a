package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"novagrab/models"
	"novagrab/services/tracking"

	"github.com/gorilla/mux"
)

type queueService interface {
	CurrentlyTracked() []models.TrackedDownload
	Get(id string) (models.TrackedDownload, bool)
	Remove(ctx context.Context, id string, blocklist bool) error
	RetryImport(ctx context.Context, id string) (models.TrackedDownload, error)
}

var _ queueService = (*tracking.Tracker)(nil)

type QueueHandler struct {
	Tracker queueService
}

func NewQueueHandler(tracker queueService) *QueueHandler {
	return &QueueHandler{Tracker: tracker}
}

// QueueItem is a tracked download plus its completed fraction.
type QueueItem struct {
	models.TrackedDownload
	Progress float64 `json:"progress"`
}

func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	tracked := h.Tracker.CurrentlyTracked()
	items := make([]QueueItem, 0, len(tracked))
	for _, td := range tracked {
		items = append(items, QueueItem{TrackedDownload: td, Progress: td.Progress()})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *QueueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	td, ok := h.Tracker.Get(id)
	if !ok {
		writeJSONError(w, "download is not tracked", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, QueueItem{TrackedDownload: td, Progress: td.Progress()})
}

// Delete removes a download, optionally blocklisting its release.
func (h *QueueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	blocklist := false
	if raw := r.URL.Query().Get("blocklist"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, "invalid blocklist flag", http.StatusBadRequest)
			return
		}
		blocklist = parsed
	}
	if err := h.Tracker.Remove(r.Context(), id, blocklist); err != nil {
		writeJSONError(w, err.Error(), queueStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryImport retries the import of a download waiting for manual action.
func (h *QueueHandler) RetryImport(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	td, err := h.Tracker.RetryImport(r.Context(), id)
	if err != nil {
		writeJSONError(w, err.Error(), queueStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, QueueItem{TrackedDownload: td, Progress: td.Progress()})
}

func queueStatus(err error) int {
	switch {
	case errors.Is(err, tracking.ErrNotTracked):
		return http.StatusNotFound
	case errors.Is(err, tracking.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
