package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	Storage    StorageSettings    `json:"storage"`
	VideoAPI   VideoAPISettings   `json:"videoApi"`
	AI         AISettings         `json:"ai"`
	AutoUpload AutoUploadSettings `json:"autoUpload"`
	Telegram   TelegramSettings   `json:"telegram"`
	Log        LogConfig          `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageSettings locates the flat-file database and poster storage.
type StorageSettings struct {
	DataDirectory    string `json:"dataDirectory"`
	PostersDirectory string `json:"postersDirectory"`
}

// VideoAPISettings configures the video platform metadata API.
type VideoAPISettings struct {
	APIKey string `json:"apiKey"`
}

// AISettings configures the enrichment service.
type AISettings struct {
	APIKey    string `json:"apiKey"`
	BaseURL   string `json:"baseUrl"`
	Model     string `json:"model"`
	WebSearch bool   `json:"webSearch"` // allow search-augmented enrichment
}

// AutoUploadSettings controls the autonomous channel ingestion pipeline.
type AutoUploadSettings struct {
	Enabled            bool     `json:"enabled"`
	IntervalMinutes    int      `json:"intervalMinutes"`
	ChannelURLs        []string `json:"channelUrls"`
	MinDurationMinutes int      `json:"minDurationMinutes"`
	BatchSize          int      `json:"batchSize"`
}

// TelegramSettings configures operator notifications.
type TelegramSettings struct {
	BotToken    string `json:"botToken"`
	AdminChatID int64  `json:"adminChatId"`
}

// LogConfig represents file logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageSettings{
			DataDirectory:    "data",
			PostersDirectory: filepath.Join("data", "posters"),
		},
		AI: AISettings{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		AutoUpload: AutoUploadSettings{
			Enabled:            false,
			IntervalMinutes:    60,
			MinDurationMinutes: 25,
			BatchSize:          5,
		},
		Log: LogConfig{
			MaxSize:    10,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
}

// Manager loads and saves the settings file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a settings manager for the given file path.
func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir creates the directory holding the settings file.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk. A missing file yields defaults (and writes
// them so the operator has a file to edit); missing fields are backfilled.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(m.path) == "" {
		return Settings{}, errors.New("config path not set")
	}

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		s := DefaultSettings()
		if saveErr := m.saveLocked(s); saveErr != nil {
			return s, saveErr
		}
		return s, nil
	}
	if err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}

	if s.AutoUpload.IntervalMinutes < 1 {
		s.AutoUpload.IntervalMinutes = 60
	}
	if s.AutoUpload.BatchSize < 1 {
		s.AutoUpload.BatchSize = 5
	}
	if s.AutoUpload.MinDurationMinutes < 1 {
		s.AutoUpload.MinDurationMinutes = 25
	}
	if strings.TrimSpace(s.Storage.DataDirectory) == "" {
		s.Storage.DataDirectory = "data"
	}
	if strings.TrimSpace(s.Storage.PostersDirectory) == "" {
		s.Storage.PostersDirectory = filepath.Join(s.Storage.DataDirectory, "posters")
	}
	if strings.TrimSpace(s.AI.BaseURL) == "" {
		s.AI.BaseURL = DefaultSettings().AI.BaseURL
	}
	if strings.TrimSpace(s.AI.Model) == "" {
		s.AI.Model = DefaultSettings().AI.Model
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(s)
}

func (m *Manager) saveLocked(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
