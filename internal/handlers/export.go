package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/devkota-labs/ocr-dataset-builder/internal/export"
)

// HandleExport writes the session's approved records as image/ground-truth
// pairs under the export directory and records a parquet manifest of what
// was written.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	records := sess.ApprovedRecords()
	dir := filepath.Join(h.exportDir, sess.ID())

	svc := export.NewService(export.DirSink{Dir: dir})
	pairs, err := svc.ExportApproved(r.Context(), records)
	if err != nil {
		if errors.Is(err, export.ErrNoApproved) {
			h.writeError(w, "No approved data to export", http.StatusBadRequest)
			return
		}
		h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	manifest := filepath.Join(dir, "manifest.parquet")
	if err := export.WriteManifest(manifest, pairs, records); err != nil {
		h.writeError(w, "Manifest write failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Exported approved records", "session", sess.ID(), "pairs", len(pairs), "dir", dir)
	h.writeJSON(w, map[string]any{
		"pairs":    pairs,
		"count":    len(pairs),
		"dir":      dir,
		"manifest": manifest,
	})
}
