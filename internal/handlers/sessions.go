package handlers

import (
	"net/http"

	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

// HandleListSessions returns a snapshot of every live session.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.GetAll()
	views := make([]session.View, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sess.View())
	}
	h.writeJSON(w, views)
}

// HandleGetSession returns one session snapshot.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, sess.View())
}

// HandleDeleteSession drops a session and all its in-memory state.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessions.Delete(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}
