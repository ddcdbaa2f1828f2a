package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"novagrab/models"
	"novagrab/services/decision"
	"novagrab/services/grab"
)

type releaseDecider interface {
	Decide(ctx context.Context, criteria models.SearchCriteria) ([]models.Candidate, error)
}

type releaseGrabber interface {
	Grab(ctx context.Context, c models.Candidate, criteria models.SearchCriteria) (models.TrackedDownload, error)
	SearchAndGrab(ctx context.Context, criteria models.SearchCriteria) (models.TrackedDownload, []models.Candidate, error)
}

type entityLookup interface {
	Get(id string) (models.LibraryEntity, bool)
}

var (
	_ releaseDecider = (*decision.Service)(nil)
	_ releaseGrabber = (*grab.Service)(nil)
)

type ReleasesHandler struct {
	Decisions releaseDecider
	Grabber   releaseGrabber
	Library   entityLookup
}

func NewReleasesHandler(decisions releaseDecider, grabber releaseGrabber, library entityLookup) *ReleasesHandler {
	return &ReleasesHandler{Decisions: decisions, Grabber: grabber, Library: library}
}

// GrabRequest selects what to grab. Without a guid the best accepted release
// of a fresh search is grabbed.
type GrabRequest struct {
	EntityID  string `json:"entityId"`
	Season    int    `json:"season,omitempty"`
	Episodes  []int  `json:"episodes,omitempty"`
	GUID      string `json:"guid,omitempty"`
	IndexerID string `json:"indexerId,omitempty"`
}

// GrabResponse is returned for grab requests. Candidates carries the full
// decision list when nothing could be grabbed.
type GrabResponse struct {
	Download   *models.TrackedDownload `json:"download,omitempty"`
	Candidates []models.Candidate      `json:"candidates,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// List runs an interactive search and returns every candidate with its
// rejections, accepted ones first in preference order.
func (h *ReleasesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, ok := h.criteria(w, strings.TrimSpace(q.Get("entityId")))
	if !ok {
		return
	}
	if raw := q.Get("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil || season < 0 {
			writeJSONError(w, "invalid season", http.StatusBadRequest)
			return
		}
		criteria.Season = season
	}
	for _, raw := range q["episode"] {
		episode, err := strconv.Atoi(raw)
		if err != nil || episode <= 0 {
			writeJSONError(w, "invalid episode", http.StatusBadRequest)
			return
		}
		criteria.Episodes = append(criteria.Episodes, episode)
	}

	candidates, err := h.Decisions.Decide(r.Context(), criteria)
	if err != nil {
		writeJSONError(w, err.Error(), decisionStatus(err))
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

// Grab grabs a specific release or the best one for an entity.
func (h *ReleasesHandler) Grab(w http.ResponseWriter, r *http.Request) {
	var req GrabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	criteria, ok := h.criteria(w, strings.TrimSpace(req.EntityID))
	if !ok {
		return
	}
	criteria.Season = req.Season
	criteria.Episodes = req.Episodes

	if strings.TrimSpace(req.GUID) == "" {
		td, candidates, err := h.Grabber.SearchAndGrab(r.Context(), criteria)
		h.respondGrab(w, td, candidates, err)
		return
	}

	candidates, err := h.Decisions.Decide(r.Context(), criteria)
	if err != nil {
		writeJSONError(w, err.Error(), decisionStatus(err))
		return
	}
	for _, c := range candidates {
		if c.Release.GUID != req.GUID {
			continue
		}
		if req.IndexerID != "" && !strings.EqualFold(c.Release.IndexerID, req.IndexerID) {
			continue
		}
		td, err := h.Grabber.Grab(r.Context(), c, criteria)
		h.respondGrab(w, td, []models.Candidate{c}, err)
		return
	}
	writeJSONError(w, "release not found in search results", http.StatusNotFound)
}

func (h *ReleasesHandler) respondGrab(w http.ResponseWriter, td models.TrackedDownload, candidates []models.Candidate, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, GrabResponse{Download: &td})
	case errors.Is(err, grab.ErrNoAcceptedRelease), errors.Is(err, grab.ErrNotAccepted), errors.Is(err, grab.ErrBlocklisted):
		writeJSON(w, http.StatusConflict, GrabResponse{Candidates: candidates, Error: err.Error()})
	case errors.Is(err, grab.ErrEntityNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		writeJSONError(w, err.Error(), decisionStatus(err))
	}
}

// criteria builds user-invoked search criteria for a library entity.
func (h *ReleasesHandler) criteria(w http.ResponseWriter, entityID string) (models.SearchCriteria, bool) {
	if entityID == "" {
		writeJSONError(w, "entityId is required", http.StatusBadRequest)
		return models.SearchCriteria{}, false
	}
	entity, ok := h.Library.Get(entityID)
	if !ok {
		writeJSONError(w, "library entity not found", http.StatusNotFound)
		return models.SearchCriteria{}, false
	}
	return models.SearchCriteria{Entity: entity, UserInvoked: true}, true
}

func decisionStatus(err error) int {
	switch {
	case errors.Is(err, decision.ErrNoQualityProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
