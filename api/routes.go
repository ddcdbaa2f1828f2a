package api

import (
	"net/http"

	"novagrab/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Settings *handlers.SettingsHandler
	Releases *handlers.ReleasesHandler
	Queue    *handlers.QueueHandler
	History  *handlers.HistoryHandler
	Library  *handlers.LibraryHandler
	Parse    *handlers.ParseHandler
}

// NewRouter returns a router with the API mounted.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	Register(r, h)
	return r
}

// Register mounts API endpoints onto the provided router.
func Register(r *mux.Router, h Handlers) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.Methods(http.MethodOptions).HandlerFunc(handlers.Options)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	if h.Settings != nil {
		api.HandleFunc("/settings", h.Settings.GetSettings).Methods(http.MethodGet)
		api.HandleFunc("/settings", h.Settings.PutSettings).Methods(http.MethodPut)
	}

	if h.Releases != nil {
		api.HandleFunc("/releases", h.Releases.List).Methods(http.MethodGet)
		api.HandleFunc("/releases/grab", h.Releases.Grab).Methods(http.MethodPost)
	}

	if h.Queue != nil {
		api.HandleFunc("/queue", h.Queue.List).Methods(http.MethodGet)
		api.HandleFunc("/queue/{id}", h.Queue.Get).Methods(http.MethodGet)
		api.HandleFunc("/queue/{id}", h.Queue.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/queue/{id}/retry-import", h.Queue.RetryImport).Methods(http.MethodPost)
	}

	if h.History != nil {
		api.HandleFunc("/history", h.History.List).Methods(http.MethodGet)
		api.HandleFunc("/blocklist", h.History.Blocklist).Methods(http.MethodGet)
	}

	if h.Library != nil {
		api.HandleFunc("/library", h.Library.List).Methods(http.MethodGet)
		api.HandleFunc("/library", h.Library.Put).Methods(http.MethodPost)
		api.HandleFunc("/library/{id}", h.Library.Get).Methods(http.MethodGet)
		api.HandleFunc("/library/{id}", h.Library.Put).Methods(http.MethodPut)
		api.HandleFunc("/library/{id}", h.Library.Delete).Methods(http.MethodDelete)
	}

	if h.Parse != nil {
		api.HandleFunc("/parse", h.Parse.Parse).Methods(http.MethodGet)
	}
}
