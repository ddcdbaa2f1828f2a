package handlers

import (
	"encoding/json"
	"net/http"

	"novagrab/config"
)

type settingsStore interface {
	Load() (config.Settings, error)
	Save(s config.Settings) error
}

var _ settingsStore = (*config.Manager)(nil)

type SettingsHandler struct {
	Manager settingsStore
}

func NewSettingsHandler(m settingsStore) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings replaces the settings. Services reload them on their next
// call; folder indexers added here are only registered on restart.
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := h.Manager.Save(s); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
