package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"reelvault/services/ingest"
	"reelvault/services/scheduler"
)

// IngestHandler exposes the ingestion admin API.
type IngestHandler struct {
	schedulerService *scheduler.Service
	ingestService    *ingest.Service
}

// NewIngestHandler creates an ingestion admin handler.
func NewIngestHandler(schedulerService *scheduler.Service, ingestService *ingest.Service) *IngestHandler {
	return &IngestHandler{
		schedulerService: schedulerService,
		ingestService:    ingestService,
	}
}

// Trigger starts a manual ingestion run.
// POST /admin/api/ingest/run  body: {"channelUrl": "..."} (optional)
func (h *IngestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelURL string `json:"channelUrl"`
	}
	if r.Body != nil {
		// An empty body means "next channel in rotation".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	channelURL, err := h.schedulerService.TriggerNow(req.ChannelURL)
	switch {
	case errors.Is(err, scheduler.ErrNoChannelsConfigured):
		writeJSONError(w, http.StatusBadRequest, "no channels configured")
		return
	case errors.Is(err, ingest.ErrAlreadyRunning):
		writeJSONError(w, http.StatusConflict, "ingestion already running for "+channelURL)
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"started":    true,
		"channelUrl": channelURL,
	})
}

// Status reports in-flight runs and the last result per channel.
// GET /admin/api/ingest/status
func (h *IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"running":  h.ingestService.RunningChannels(),
		"lastRuns": h.ingestService.LastResults(),
	})
}
