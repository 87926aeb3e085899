package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelvault/models"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

// Service persists per-channel ingestion progress: the pagination cursor and
// the set of video ids already evaluated.
type Service struct {
	mu       sync.RWMutex
	path     string
	channels map[string]models.ChannelProgress
}

// NewService creates a progress store inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "channel_progress.json"),
		channels: make(map[string]models.ChannelProgress),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Load returns the stored progress for a channel, or an empty default when
// the channel has never been processed. It never fails.
func (s *Service) Load(channelID string) models.ChannelProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.channels[channelID]; ok {
		out := p
		out.ProcessedVideoIDs = append([]string(nil), p.ProcessedVideoIDs...)
		return out
	}
	return models.ChannelProgress{ChannelID: channelID}
}

// Save durably rewrites one channel's progress entry.
func (s *Service) Save(channelID string, p models.ChannelProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ChannelID = channelID
	prev, existed := s.channels[channelID]
	s.channels[channelID] = p

	if err := s.saveLocked(); err != nil {
		if existed {
			s.channels[channelID] = prev
		} else {
			delete(s.channels, channelID)
		}
		return err
	}
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read channel progress: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var channels map[string]models.ChannelProgress
	if err := json.Unmarshal(data, &channels); err != nil {
		return fmt.Errorf("decode channel progress: %w", err)
	}
	for id, p := range channels {
		p.ChannelID = id
		s.channels[id] = p
	}
	return nil
}

func (s *Service) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create progress temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.channels); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode progress: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync progress: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close progress temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}

	return nil
}
