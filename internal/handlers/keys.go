package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devkota-labs/ocr-dataset-builder/internal/keymap"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

type keyRequest struct {
	Key string `json:"key"`
}

// HandleKey maps a keyboard shortcut onto the session operation bound to
// it in the current stage. Unbound keys are ignored rather than rejected
// so the front end can forward keystrokes without filtering.
func (h *Handler) HandleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd, bound := keymap.Lookup(sess.Stage(), req.Key)
	if !bound {
		h.writeJSON(w, sess.View())
		return
	}

	if err := h.dispatchKey(r.Context(), sess, cmd); err != nil {
		switch {
		case errors.Is(err, ocr.ErrNoBoxes):
			h.writeError(w, "Please draw at least one bounding box", http.StatusBadRequest)
		case errors.Is(err, ocr.ErrMissingAPIKey):
			h.writeError(w, "Please set your Gemini API key in settings first", http.StatusBadRequest)
		case errors.Is(err, session.ErrBusy):
			h.writeError(w, "Extraction already in progress", http.StatusConflict)
		case errors.Is(err, session.ErrNoMoreImages):
			h.writeError(w, "No more images in this session", http.StatusConflict)
		default:
			h.writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, sess.View())
}

func (h *Handler) dispatchKey(ctx context.Context, sess *session.Session, cmd keymap.Command) error {
	switch cmd {
	case keymap.CmdExtract:
		return h.runExtract(ctx, sess)
	case keymap.CmdUndoBox:
		sess.UndoBox()
	case keymap.CmdNextImage:
		return sess.NextImage()
	case keymap.CmdApprove:
		return sess.Approve()
	case keymap.CmdReject:
		return sess.Reject()
	case keymap.CmdToggleEdit:
		return sess.ToggleEdit()
	case keymap.CmdPrev:
		sess.Navigate(-1)
	case keymap.CmdNext:
		sess.Navigate(1)
	}
	return nil
}
