package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"reelvault/handlers"
	"reelvault/models"
	"reelvault/services/catalog"
)

func newCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create catalog service: %v", err)
	}

	err = svc.Append([]models.MovieRecord{
		{ID: "quiet-town", Title: "Quiet Town", Category: models.CategoryDrama, Popularity: 10},
		{ID: "loud-city", Title: "Loud City", Category: models.CategoryAction, Popularity: 90},
	})
	if err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	return svc
}

func TestMoviesListSortedByPopularity(t *testing.T) {
	h := handlers.NewMoviesHandler(newCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var movies []models.MovieRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &movies); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(movies))
	}
	if movies[0].ID != "loud-city" {
		t.Fatalf("expected most popular first, got %s", movies[0].ID)
	}
}

func TestMoviesListCategoryFilter(t *testing.T) {
	h := handlers.NewMoviesHandler(newCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/api/movies?category=Drama", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var movies []models.MovieRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &movies); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != "quiet-town" {
		t.Fatalf("unexpected filter result: %+v", movies)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/movies?category=Nonsense", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
}

func TestMoviesGet(t *testing.T) {
	h := handlers.NewMoviesHandler(newCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/api/movies/quiet-town", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "quiet-town"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var movie models.MovieRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if movie.Title != "Quiet Town" {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestMoviesGetNotFound(t *testing.T) {
	h := handlers.NewMoviesHandler(newCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/api/movies/ghost", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "ghost"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
