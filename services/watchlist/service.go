package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"reelvault/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrMovieIDRequired    = errors.New("movie id is required")
)

// Service manages persistence and retrieval of per-user movie watchlists.
type Service struct {
	mu    sync.RWMutex
	path  string
	items map[string]map[string]models.WatchlistItem
}

// NewService creates a watchlist service storing data inside the provided
// directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "watchlist.json"),
		items: make(map[string]map[string]models.WatchlistItem),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns a user's watchlist, most recently added first.
func (s *Service) List(userID string) ([]models.WatchlistItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.WatchlistItem, 0)
	for _, item := range s.items[userID] {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].MovieID < items[j].MovieID
		}
		return items[i].AddedAt.After(items[j].AddedAt)
	})

	return items, nil
}

// Contains reports whether a movie is on a user's watchlist.
func (s *Service) Contains(userID, movieID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[userID][movieID]
	return ok
}

// Toggle adds the movie to the watchlist if absent and removes it otherwise.
// It returns true when the movie ended up on the list.
func (s *Service) Toggle(userID, movieID, title string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return false, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser, ok := s.items[userID]
	if !ok {
		perUser = make(map[string]models.WatchlistItem)
		s.items[userID] = perUser
	}

	var added bool
	if prev, exists := perUser[movieID]; exists {
		delete(perUser, movieID)
		if err := s.saveLocked(); err != nil {
			perUser[movieID] = prev
			return false, err
		}
	} else {
		perUser[movieID] = models.WatchlistItem{
			MovieID: movieID,
			Title:   title,
			AddedAt: time.Now().UTC(),
		}
		added = true
		if err := s.saveLocked(); err != nil {
			delete(perUser, movieID)
			return false, err
		}
	}

	return added, nil
}

// Remove deletes a movie from a user's watchlist. It returns false when the
// movie was not on the list.
func (s *Service) Remove(userID, movieID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser, ok := s.items[userID]
	if !ok {
		return false, nil
	}
	prev, exists := perUser[movieID]
	if !exists {
		return false, nil
	}

	delete(perUser, movieID)
	if err := s.saveLocked(); err != nil {
		perUser[movieID] = prev
		return false, err
	}
	return true, nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var byUser map[string][]models.WatchlistItem
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode watchlist: %w", err)
	}

	for userID, items := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		perUser := make(map[string]models.WatchlistItem, len(items))
		for _, item := range items {
			if item.MovieID != "" {
				perUser[item.MovieID] = item
			}
		}
		s.items[userID] = perUser
	}
	return nil
}

func (s *Service) saveLocked() error {
	byUser := make(map[string][]models.WatchlistItem, len(s.items))
	for userID, collection := range s.items {
		items := make([]models.WatchlistItem, 0, len(collection))
		for _, item := range collection {
			items = append(items, item)
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].AddedAt.Equal(items[j].AddedAt) {
				return items[i].MovieID < items[j].MovieID
			}
			return items[i].AddedAt.Before(items[j].AddedAt)
		})
		byUser[userID] = items
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create watchlist temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byUser); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode watchlist: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync watchlist: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close watchlist temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace watchlist file: %w", err)
	}

	return nil
}
