package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/devkota-labs/ocr-dataset-builder/internal/config"
	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
	"github.com/devkota-labs/ocr-dataset-builder/internal/storage"
)

// Handler wires the annotation pipeline to the HTTP surface.
type Handler struct {
	sessions  *storage.SessionStore
	settings  *config.Store
	exportDir string
}

// New creates a handler over the given settings store. Exported artifact
// pairs land in per-session directories under exportDir.
func New(settings *config.Store, exportDir string) *Handler {
	return &Handler{
		sessions:  storage.New(),
		settings:  settings,
		exportDir: exportDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := r.PathValue("id")
	sess, exists := h.sessions.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}
