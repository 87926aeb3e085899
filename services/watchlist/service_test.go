package watchlist

import (
	"testing"
)

func TestToggleAddsThenRemoves(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	added, err := svc.Toggle("user-1", "movie-1", "First Movie")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !added {
		t.Fatal("first toggle should add")
	}
	if !svc.Contains("user-1", "movie-1") {
		t.Fatal("movie should be on the watchlist")
	}

	added, err = svc.Toggle("user-1", "movie-1", "First Movie")
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if added {
		t.Fatal("second toggle should remove")
	}
	if svc.Contains("user-1", "movie-1") {
		t.Fatal("movie should be off the watchlist")
	}
}

func TestWatchlistsAreIsolatedPerUser(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := svc.Toggle("user-1", "movie-1", "First Movie"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if svc.Contains("user-2", "movie-1") {
		t.Fatal("watchlists must not leak between users")
	}

	items, err := svc.List("user-2")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list for other user, got %+v", items)
	}
}

func TestWatchlistPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if _, err := svc.Toggle("user-1", "movie-1", "First Movie"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if _, err := svc.Toggle("user-1", "movie-2", "Second Movie"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	svc2, err := NewService(dir)
	if err != nil {
		t.Fatalf("failed to reload service: %v", err)
	}
	items, err := svc2.List("user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after reload, got %d", len(items))
	}
}

func TestRemoveMissingMovie(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	removed, err := svc.Remove("user-1", "movie-1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed {
		t.Fatal("removing a missing movie should report false")
	}
}

func TestToggleValidatesIDs(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := svc.Toggle("", "movie-1", "x"); err != ErrUserIDRequired {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := svc.Toggle("user-1", "  ", "x"); err != ErrMovieIDRequired {
		t.Fatalf("expected ErrMovieIDRequired, got %v", err)
	}
}
