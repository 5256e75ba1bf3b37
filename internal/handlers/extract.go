package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/devkota-labs/ocr-dataset-builder/internal/gemini"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

// HandleExtract runs the current image's boxes through the vision
// service. A missing API key is reported with configure=true so the
// front end can route the user to settings.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	if err := h.runExtract(r.Context(), sess); err != nil {
		switch {
		case errors.Is(err, ocr.ErrNoBoxes):
			h.writeError(w, "Please draw at least one bounding box", http.StatusBadRequest)
		case errors.Is(err, ocr.ErrMissingAPIKey):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			h.writeJSON(w, map[string]any{
				"error":     "Please set your Gemini API key in settings first",
				"configure": true,
			})
		case errors.Is(err, session.ErrBusy):
			h.writeError(w, "Extraction already in progress", http.StatusConflict)
		case errors.Is(err, context.Canceled):
			// Client went away mid-batch; nothing useful to write.
		default:
			h.writeError(w, "Extraction failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, sess.View())
}

func (h *Handler) runExtract(ctx context.Context, sess *session.Session) error {
	apiKey := h.settings.APIKey()
	svc := ocr.NewService(gemini.New(apiKey))
	return sess.Extract(ctx, svc, apiKey)
}
