package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"novagrab/handlers"
	"novagrab/models"
	"novagrab/services/decision"
	"novagrab/services/grab"
)

type fakeDecisions struct {
	candidates []models.Candidate
	err        error
	criteria   models.SearchCriteria
}

func (f *fakeDecisions) Decide(_ context.Context, criteria models.SearchCriteria) ([]models.Candidate, error) {
	f.criteria = criteria
	return f.candidates, f.err
}

type fakeGrabber struct {
	grabbed    []models.Candidate
	candidates []models.Candidate
	err        error
}

func (f *fakeGrabber) Grab(_ context.Context, c models.Candidate, criteria models.SearchCriteria) (models.TrackedDownload, error) {
	if f.err != nil {
		return models.TrackedDownload{}, f.err
	}
	f.grabbed = append(f.grabbed, c)
	return models.TrackedDownload{ID: "dl-" + c.Release.GUID, Candidate: c, Criteria: criteria, State: models.DownloadStateDownloading}, nil
}

func (f *fakeGrabber) SearchAndGrab(ctx context.Context, criteria models.SearchCriteria) (models.TrackedDownload, []models.Candidate, error) {
	if f.err != nil {
		return models.TrackedDownload{}, f.candidates, f.err
	}
	td, err := f.Grab(ctx, f.candidates[0], criteria)
	return td, f.candidates, err
}

type fakeEntities map[string]models.LibraryEntity

func (f fakeEntities) Get(id string) (models.LibraryEntity, bool) {
	e, ok := f[id]
	return e, ok
}

var entities = fakeEntities{"s1": {ID: "s1", Kind: models.EntityKindSeries, Title: "Some Show"}}

func candidate(guid string, rejections ...models.Rejection) models.Candidate {
	return models.Candidate{
		Release:    models.RawRelease{Title: "Some.Show.S01E02.720p.HDTV-GRP", GUID: guid, IndexerID: "idx"},
		Rejections: rejections,
	}
}

func TestReleasesHandler_List(t *testing.T) {
	decisions := &fakeDecisions{candidates: []models.Candidate{
		candidate("a"),
		candidate("b", models.Rejection{Spec: "Size", Reason: "TooLarge", Severity: models.SeverityPermanent}),
	}}
	handler := handlers.NewReleasesHandler(decisions, &fakeGrabber{}, entities)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/releases?entityId=s1&season=1&episode=2&episode=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if decisions.criteria.Entity.Title != "Some Show" || !decisions.criteria.UserInvoked {
		t.Fatalf("unexpected criteria %+v", decisions.criteria)
	}
	if decisions.criteria.Season != 1 || len(decisions.criteria.Episodes) != 2 || decisions.criteria.Episodes[1] != 3 {
		t.Fatalf("unexpected season/episodes %+v", decisions.criteria)
	}

	var response []models.Candidate
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 || len(response[1].Rejections) != 1 || response[1].Rejections[0].Reason != "TooLarge" {
		t.Fatalf("unexpected candidates %+v", response)
	}
}

func TestReleasesHandler_ListErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"missing entity id", "/api/releases", nil, http.StatusBadRequest},
		{"unknown entity", "/api/releases?entityId=zz", nil, http.StatusNotFound},
		{"bad season", "/api/releases?entityId=s1&season=x", nil, http.StatusBadRequest},
		{"bad episode", "/api/releases?entityId=s1&episode=0", nil, http.StatusBadRequest},
		{"no profile", "/api/releases?entityId=s1", fmt.Errorf("%w: \"4K\"", decision.ErrNoQualityProfile), http.StatusUnprocessableEntity},
		{"timeout", "/api/releases?entityId=s1", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewReleasesHandler(&fakeDecisions{err: tt.err}, &fakeGrabber{}, entities)
			rec := httptest.NewRecorder()
			handler.List(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func postGrab(t *testing.T, handler *handlers.ReleasesHandler, req handlers.GrabRequest) (*httptest.ResponseRecorder, handlers.GrabResponse) {
	t.Helper()
	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	handler.Grab(rec, httptest.NewRequest(http.MethodPost, "/api/releases/grab", bytes.NewReader(body)))
	var response handlers.GrabResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &response)
	return rec, response
}

func TestReleasesHandler_GrabBest(t *testing.T) {
	grabber := &fakeGrabber{candidates: []models.Candidate{candidate("best")}}
	handler := handlers.NewReleasesHandler(&fakeDecisions{}, grabber, entities)

	rec, response := postGrab(t, handler, handlers.GrabRequest{EntityID: "s1", Season: 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if response.Download == nil || response.Download.ID != "dl-best" || response.Download.Criteria.Season != 1 {
		t.Fatalf("unexpected response %+v", response)
	}
}

func TestReleasesHandler_GrabByGUID(t *testing.T) {
	decisions := &fakeDecisions{candidates: []models.Candidate{candidate("a"), candidate("b")}}
	grabber := &fakeGrabber{}
	handler := handlers.NewReleasesHandler(decisions, grabber, entities)

	rec, response := postGrab(t, handler, handlers.GrabRequest{EntityID: "s1", GUID: "b", IndexerID: "IDX"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(grabber.grabbed) != 1 || grabber.grabbed[0].Release.GUID != "b" || response.Download.ID != "dl-b" {
		t.Fatalf("wrong release grabbed: %+v", grabber.grabbed)
	}

	rec, _ = postGrab(t, handler, handlers.GrabRequest{EntityID: "s1", GUID: "zz"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReleasesHandler_GrabNothingAccepted(t *testing.T) {
	rejected := candidate("a", models.Rejection{Spec: "Blocklisted", Reason: "Blocklisted", Severity: models.SeverityPermanent})
	grabber := &fakeGrabber{candidates: []models.Candidate{rejected}, err: fmt.Errorf("%w for %q", grab.ErrNoAcceptedRelease, "Some Show")}
	handler := handlers.NewReleasesHandler(&fakeDecisions{}, grabber, entities)

	rec, response := postGrab(t, handler, handlers.GrabRequest{EntityID: "s1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if len(response.Candidates) != 1 || response.Candidates[0].Rejections[0].Reason != "Blocklisted" {
		t.Fatalf("expected the rejection audit, got %+v", response)
	}
}

func TestReleasesHandler_GrabBadBody(t *testing.T) {
	handler := handlers.NewReleasesHandler(&fakeDecisions{}, &fakeGrabber{}, entities)
	rec := httptest.NewRecorder()
	handler.Grab(rec, httptest.NewRequest(http.MethodPost, "/api/releases/grab", bytes.NewBufferString("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
