package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"novagrab/models"
	"novagrab/services/history"
)

type historyLedger interface {
	ForEntity(ctx context.Context, entityID string, limit int) ([]models.HistoryRecord, error)
	BlocklistForEntity(ctx context.Context, entityID string) ([]models.BlocklistEntry, error)
}

var _ historyLedger = (history.Store)(nil)

type HistoryHandler struct {
	Service historyLedger
}

func NewHistoryHandler(service historyLedger) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// List returns the history of one entity, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entityID, ok := requireEntityID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.Service.ForEntity(r.Context(), entityID, limit)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Blocklist returns the blocklisted releases of one entity.
func (h *HistoryHandler) Blocklist(w http.ResponseWriter, r *http.Request) {
	entityID, ok := requireEntityID(w, r)
	if !ok {
		return
	}
	entries, err := h.Service.BlocklistForEntity(r.Context(), entityID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.BlocklistEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func requireEntityID(w http.ResponseWriter, r *http.Request) (string, bool) {
	entityID := strings.TrimSpace(r.URL.Query().Get("entityId"))
	if entityID == "" {
		writeJSONError(w, "entityId is required", http.StatusBadRequest)
		return "", false
	}
	return entityID, true
}
