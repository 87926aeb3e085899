package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelvault/models"
	"reelvault/utils/slug"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrDuplicateTitle     = errors.New("movie with this title already exists")
)

// Service manages the durable movie catalog. The ingestion pipeline only ever
// appends; records are never mutated or deleted here.
type Service struct {
	mu     sync.RWMutex
	path   string
	movies []models.MovieRecord
}

// NewService creates a catalog service storing movies.json inside the
// provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	svc := &Service{
		path: filepath.Join(storageDir, "movies.json"),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns a copy of the full catalog in insertion order.
func (s *Service) List() []models.MovieRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MovieRecord, len(s.movies))
	copy(out, s.movies)
	return out
}

// Get returns the record with the given id.
func (s *Service) Get(id string) (models.MovieRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if m.ID == id {
			return m, true
		}
	}
	return models.MovieRecord{}, false
}

// Count returns the number of catalog entries.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// TitleExists reports whether a movie with the given title is already in the
// catalog. Comparison is case-insensitive.
func (s *Service) TitleExists(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titleExistsLocked(title)
}

func (s *Service) titleExistsLocked(title string) bool {
	for _, m := range s.movies {
		if strings.EqualFold(m.Title, title) {
			return true
		}
	}
	return false
}

// GenerateID derives a unique slug id from a title. reserved holds ids
// claimed by the current in-progress batch that are not yet persisted.
func (s *Service) GenerateID(title string, reserved map[string]bool) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := slug.Make(title)
	id := base
	for n := 2; s.idTakenLocked(id) || reserved[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (s *Service) idTakenLocked(id string) bool {
	for _, m := range s.movies {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Append adds records to the catalog in a single durable write. Records whose
// title collides case-insensitively with an existing entry are rejected with
// ErrDuplicateTitle before anything is written.
func (s *Service) Append(records []models.MovieRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if s.titleExistsLocked(r.Title) {
			return fmt.Errorf("%w: %s", ErrDuplicateTitle, r.Title)
		}
	}

	s.movies = append(s.movies, records...)
	if err := s.saveLocked(); err != nil {
		// Roll the in-memory state back so a failed write cannot drift from disk.
		s.movies = s.movies[:len(s.movies)-len(records)]
		return err
	}
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.movies = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if len(data) == 0 {
		s.movies = nil
		return nil
	}

	var movies []models.MovieRecord
	if err := json.Unmarshal(data, &movies); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	s.movies = movies
	return nil
}

func (s *Service) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create catalog temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.movies); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode catalog: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync catalog: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close catalog temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace catalog file: %w", err)
	}

	return nil
}
