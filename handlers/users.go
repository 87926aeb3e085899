package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelvault/services/users"
)

// UsersHandler exposes profile management endpoints.
type UsersHandler struct {
	users *users.Service
}

// NewUsersHandler creates a users handler.
func NewUsersHandler(usersSvc *users.Service) *UsersHandler {
	return &UsersHandler{users: usersSvc}
}

// List returns all profiles.
// GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.users.List())
}

// Create adds a new profile.
// POST /api/users  body: {"name": "..."}
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Create(req.Name)
	if errors.Is(err, users.ErrNameRequired) {
		writeJSONError(w, http.StatusBadRequest, "profile name is required")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(u)
}

// Rename updates a profile name.
// PUT /api/users/{userID}  body: {"name": "..."}
func (h *UsersHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Rename(userID, req.Name)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, users.ErrNameRequired):
		writeJSONError(w, http.StatusBadRequest, "profile name is required")
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}

// Delete removes a profile.
// DELETE /api/users/{userID}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	err := h.users.Delete(userID)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, users.ErrLastUser):
		writeJSONError(w, http.StatusConflict, "cannot delete the last profile")
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
