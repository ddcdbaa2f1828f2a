package handlers

import (
	"net/http"
	"strings"

	"novagrab/models"
)

type titleParser interface {
	Parse(raw string) models.ParsedReleaseInfo
}

type ParseHandler struct {
	Parser titleParser
}

func NewParseHandler(parser titleParser) *ParseHandler {
	return &ParseHandler{Parser: parser}
}

// Parse returns the structured form of a release title.
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeJSONError(w, "title is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Parser.Parse(title))
}
