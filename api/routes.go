package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reelvault/handlers"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Movies    *handlers.MoviesHandler
	Ingest    *handlers.IngestHandler
	Settings  *handlers.SettingsHandler
	Users     *handlers.UsersHandler
	Watchlist *handlers.WatchlistHandler

	PostersDir string
}

// corsMiddleware handles CORS for API routes.
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

// NewRouter builds the HTTP routing table.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/movies", h.Movies.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/movies/categories", h.Movies.Categories).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/movies/{id}", h.Movies.Get).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/settings", h.Settings.Get).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/settings", h.Settings.Update).Methods(http.MethodPut)

	api.HandleFunc("/users", h.Users.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/users", h.Users.Create).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}", h.Users.Rename).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/users/{userID}", h.Users.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/users/{userID}/watchlist", h.Watchlist.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/users/{userID}/watchlist", h.Watchlist.Toggle).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/watchlist/{movieID}", h.Watchlist.Remove).Methods(http.MethodDelete, http.MethodOptions)

	admin := r.PathPrefix("/admin/api").Subrouter()
	admin.HandleFunc("/ingest/run", h.Ingest.Trigger).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/ingest/status", h.Ingest.Status).Methods(http.MethodGet, http.MethodOptions)

	if h.PostersDir != "" {
		r.PathPrefix("/posters/").Handler(
			http.StripPrefix("/posters/", http.FileServer(http.Dir(h.PostersDir))))
	}

	return r
}
