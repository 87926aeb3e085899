package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reelvault/services/catalog"
	"reelvault/services/users"
	"reelvault/services/watchlist"
)

// WatchlistHandler exposes per-user watchlist endpoints.
type WatchlistHandler struct {
	watchlist *watchlist.Service
	users     *users.Service
	catalog   *catalog.Service
}

// NewWatchlistHandler creates a watchlist handler.
func NewWatchlistHandler(watchlistSvc *watchlist.Service, usersSvc *users.Service, catalogSvc *catalog.Service) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: watchlistSvc,
		users:     usersSvc,
		catalog:   catalogSvc,
	}
}

// List returns a user's watchlist.
// GET /api/users/{userID}/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if !h.users.Exists(userID) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}

	items, err := h.watchlist.List(userID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// Toggle flips a movie's watchlist membership for a user.
// POST /api/users/{userID}/watchlist  body: {"movieId": "..."}
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if !h.users.Exists(userID) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		MovieID string `json:"movieId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, ok := h.catalog.Get(req.MovieID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "movie not found")
		return
	}

	added, err := h.watchlist.Toggle(userID, movie.ID, movie.Title)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"movieId":     movie.ID,
		"onWatchlist": added,
	})
}

// Remove deletes a movie from a user's watchlist.
// DELETE /api/users/{userID}/watchlist/{movieID}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	if !h.users.Exists(userID) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}

	removed, err := h.watchlist.Remove(userID, vars["movieID"])
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, "movie not on watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
