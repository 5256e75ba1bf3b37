package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

// HandleAddBox turns a pointer drag into a stored bounding box. Drags
// below the commit threshold are discarded without an error; the
// response just reports committed=false.
func (h *Handler) HandleAddBox(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var drag struct {
		X0 float64 `json:"x0"`
		Y0 float64 `json:"y0"`
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&drag); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	box, committed := sess.AddBoxFromDrag(drag.X0, drag.Y0, drag.X1, drag.Y1)
	if !committed {
		h.writeJSON(w, map[string]any{"committed": false})
		return
	}
	h.writeJSON(w, map[string]any{"committed": true, "box": box})
}

// HandleRemoveBox deletes one box by id.
func (h *Handler) HandleRemoveBox(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	boxID, err := strconv.ParseInt(r.PathValue("boxID"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid box id", http.StatusBadRequest)
		return
	}
	if !sess.RemoveBox(boxID) {
		h.writeError(w, "Box not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, sess.View())
}

// HandleViewport applies a zoom or rotation action.
func (h *Handler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "zoom-in":
		sess.ZoomIn()
	case "zoom-out":
		sess.ZoomOut()
	case "rotate":
		sess.Rotate()
	case "reset":
		sess.ResetView()
	default:
		h.writeError(w, "Unknown viewport action: "+req.Action, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, sess.View())
}

// HandleNextImage manually advances to the next image, dropping the
// current box list.
func (h *Handler) HandleNextImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := sess.NextImage(); err != nil {
		if errors.Is(err, session.ErrNoMoreImages) || errors.Is(err, session.ErrBusy) {
			h.writeError(w, err.Error(), http.StatusConflict)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, sess.View())
}
