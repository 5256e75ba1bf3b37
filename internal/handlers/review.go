package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/devkota-labs/ocr-dataset-builder/internal/review"
)

type reviewRequest struct {
	Action string `json:"action"`
	Text   string `json:"text"`
	Delta  int    `json:"delta"`
}

// HandleReview drives the review state machine for a session. Supported
// actions: enter, annotate, approve, reject, toggle-edit, edit-text,
// navigate.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Action {
	case "enter":
		err = sess.EnterReview()
	case "annotate":
		sess.EnterAnnotate()
	case "approve":
		err = sess.Approve()
	case "reject":
		err = sess.Reject()
	case "toggle-edit":
		err = sess.ToggleEdit()
	case "edit-text":
		sess.SetEditText(req.Text)
	case "navigate":
		sess.Navigate(req.Delta)
	default:
		h.writeError(w, "Unknown review action: "+req.Action, http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, review.ErrNoRecords) {
			h.writeError(w, "No extracted text to review", http.StatusBadRequest)
			return
		}
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, sess.View())
}

// HandleRecordImage serves the cropped region an extraction record was
// produced from, so the review panel can show text next to its source.
func (h *Handler) HandleRecordImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	recordID := r.PathValue("recordID")
	rec, found := sess.Record(recordID)
	if !found {
		h.writeError(w, "Record not found", http.StatusNotFound)
		return
	}
	if len(rec.Cropped) == 0 {
		h.writeError(w, "No image stored for record", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Cropped)))
	w.Write(rec.Cropped)
}
