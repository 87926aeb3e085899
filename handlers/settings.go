package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"reelvault/config"
)

// secretMask replaces stored credentials in API responses. A PUT that sends
// the mask back leaves the stored value unchanged.
const secretMask = "********"

// SettingsHandler exposes read/update access to the settings file.
type SettingsHandler struct {
	configManager *config.Manager
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(configManager *config.Manager) *SettingsHandler {
	return &SettingsHandler{configManager: configManager}
}

// Get returns current settings with secrets masked.
// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.configManager.Load()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(maskSecrets(settings))
}

// Update replaces the settings file.
// PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.configManager.Load()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	var incoming config.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
		return
	}

	restoreMaskedSecrets(&incoming, current)

	if err := h.configManager.Save(incoming); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(maskSecrets(incoming))
}

func maskSecrets(s config.Settings) config.Settings {
	if s.VideoAPI.APIKey != "" {
		s.VideoAPI.APIKey = secretMask
	}
	if s.AI.APIKey != "" {
		s.AI.APIKey = secretMask
	}
	if s.Telegram.BotToken != "" {
		s.Telegram.BotToken = secretMask
	}
	return s
}

func restoreMaskedSecrets(incoming *config.Settings, current config.Settings) {
	if strings.TrimSpace(incoming.VideoAPI.APIKey) == secretMask {
		incoming.VideoAPI.APIKey = current.VideoAPI.APIKey
	}
	if strings.TrimSpace(incoming.AI.APIKey) == secretMask {
		incoming.AI.APIKey = current.AI.APIKey
	}
	if strings.TrimSpace(incoming.Telegram.BotToken) == secretMask {
		incoming.Telegram.BotToken = current.Telegram.BotToken
	}
}
