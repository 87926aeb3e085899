package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"reelvault/models"
	"reelvault/services/catalog"
)

// MoviesHandler exposes the movie catalog read API.
type MoviesHandler struct {
	catalog *catalog.Service
}

// NewMoviesHandler creates a movies handler.
func NewMoviesHandler(catalogSvc *catalog.Service) *MoviesHandler {
	return &MoviesHandler{catalog: catalogSvc}
}

// List returns catalog entries, optionally filtered by category and title
// search, sorted by popularity.
// GET /api/movies?category=Drama&search=term
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	movies := h.catalog.List()

	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		parsed, ok := models.ParseCategory(category)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown category: "+category)
			return
		}
		filtered := movies[:0]
		for _, m := range movies {
			if m.Category == parsed {
				filtered = append(filtered, m)
			}
		}
		movies = filtered
	}

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		needle := strings.ToLower(search)
		filtered := movies[:0]
		for _, m := range movies {
			if strings.Contains(strings.ToLower(m.Title), needle) {
				filtered = append(filtered, m)
			}
		}
		movies = filtered
	}

	sort.SliceStable(movies, func(i, j int) bool {
		if movies[i].Popularity == movies[j].Popularity {
			return movies[i].Title < movies[j].Title
		}
		return movies[i].Popularity > movies[j].Popularity
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}

// Get returns one movie by id.
// GET /api/movies/{id}
func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, ok := h.catalog.Get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "movie not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

// Categories returns the fixed category enum for UI pickers.
// GET /api/movies/categories
func (h *MoviesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.Categories)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
