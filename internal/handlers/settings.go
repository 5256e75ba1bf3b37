package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/devkota-labs/ocr-dataset-builder/internal/config"
)

// settingsView mirrors config.Settings minus the API key value, which is
// never echoed back; presence is signaled with a boolean instead.
type settingsView struct {
	HasAPIKey          bool `json:"has_api_key"`
	AutoSave           bool `json:"auto_save"`
	ParallelProcessing bool `json:"parallel_processing"`
	AutoDeskew         bool `json:"auto_deskew"`
}

func viewOf(s config.Settings, keyConfigured bool) settingsView {
	return settingsView{
		HasAPIKey:          keyConfigured,
		AutoSave:           s.AutoSave,
		ParallelProcessing: s.ParallelProcessing,
		AutoDeskew:         s.AutoDeskew,
	}
}

// HandleGetSettings returns the current settings.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	cur := h.settings.Get()
	h.writeJSON(w, viewOf(cur, h.settings.APIKey() != ""))
}

type settingsUpdate struct {
	APIKey             *string `json:"api_key"`
	AutoSave           *bool   `json:"auto_save"`
	ParallelProcessing *bool   `json:"parallel_processing"`
	AutoDeskew         *bool   `json:"auto_deskew"`
}

// HandleUpdateSettings applies a partial settings update and persists it.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	next := h.settings.Get()
	if req.APIKey != nil {
		next.APIKey = *req.APIKey
	}
	if req.AutoSave != nil {
		next.AutoSave = *req.AutoSave
	}
	if req.ParallelProcessing != nil {
		next.ParallelProcessing = *req.ParallelProcessing
	}
	if req.AutoDeskew != nil {
		next.AutoDeskew = *req.AutoDeskew
	}
	if err := h.settings.Update(next); err != nil {
		h.writeError(w, "Unable to save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Settings updated", "api_key_set", req.APIKey != nil)
	h.writeJSON(w, viewOf(next, h.settings.APIKey() != ""))
}
