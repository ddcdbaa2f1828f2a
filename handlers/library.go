package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"novagrab/models"
	"novagrab/services/library"

	"github.com/gorilla/mux"
)

type libraryCatalog interface {
	List() []models.LibraryEntity
	Get(id string) (models.LibraryEntity, bool)
	Upsert(entity models.LibraryEntity) (models.LibraryEntity, error)
	Remove(id string) (bool, error)
}

var _ libraryCatalog = (*library.Catalog)(nil)

type LibraryHandler struct {
	Catalog libraryCatalog
}

func NewLibraryHandler(catalog libraryCatalog) *LibraryHandler {
	return &LibraryHandler{Catalog: catalog}
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.List())
}

func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entity, ok := h.Catalog.Get(strings.TrimSpace(mux.Vars(r)["id"]))
	if !ok {
		writeJSONError(w, library.ErrEntityNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *LibraryHandler) Put(w http.ResponseWriter, r *http.Request) {
	var entity models.LibraryEntity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if id := strings.TrimSpace(mux.Vars(r)["id"]); id != "" {
		entity.ID = id
	}
	saved, err := h.Catalog.Upsert(entity)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, library.ErrIDRequired) || errors.Is(err, library.ErrTitleRequired) {
			status = http.StatusBadRequest
		}
		writeJSONError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Catalog.Remove(strings.TrimSpace(mux.Vars(r)["id"]))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !removed {
		writeJSONError(w, library.ErrEntityNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
