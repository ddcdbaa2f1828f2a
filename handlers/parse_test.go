package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"novagrab/handlers"
	"novagrab/models"
	"novagrab/utils/parser"
)

func TestParseHandler(t *testing.T) {
	handler := handlers.NewParseHandler(parser.New(models.DefaultQualities()))

	rec := httptest.NewRecorder()
	handler.Parse(rec, httptest.NewRequest(http.MethodGet, "/api/parse?title=Artist.Name.Album.Title.2019.FLAC", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var info models.ParsedReleaseInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Quality.Quality.Name != "FLAC" || info.Year != 2019 {
		t.Fatalf("unexpected parse %+v", info)
	}

	rec = httptest.NewRecorder()
	handler.Parse(rec, httptest.NewRequest(http.MethodGet, "/api/parse", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
