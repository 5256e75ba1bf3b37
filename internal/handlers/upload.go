package handlers

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

const maxImageBytes = 10 * 1024 * 1024

// HandleCreateSession accepts a multipart upload of one or more images
// and opens an annotation session over them. Image ids are zero-based in
// upload order.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		h.writeError(w, "No images uploaded", http.StatusBadRequest)
		return
	}

	imgs := make([]models.SourceImage, 0, len(files))
	for _, header := range files {
		img, err := decodeUpload(header)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		imgs = append(imgs, models.SourceImage{Name: header.Filename, Raster: img})
	}

	// Filename of the first image plus a timestamp keeps ids readable
	// and unique enough for an in-memory store.
	base := strings.TrimSuffix(files[0].Filename, filepath.Ext(files[0].Filename))
	sessionID := fmt.Sprintf("%s_%d", base, time.Now().Unix())

	sess := session.New(sessionID, imgs)
	h.sessions.Set(sessionID, sess)

	slog.Info("Session created", "session_id", sessionID, "images", len(imgs))
	h.writeJSON(w, map[string]any{
		"session_id": sessionID,
		"message":    fmt.Sprintf("Successfully uploaded %d image(s)", len(imgs)),
		"images":     len(imgs),
	})
}

func decodeUpload(header *multipart.FileHeader) (image.Image, error) {
	if header.Size >= maxImageBytes {
		return nil, fmt.Errorf("image %s too large (max 10MB)", header.Filename)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}
	defer f.Close()

	img, _, err := image.Decode(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("file %s is not a supported image: %w", header.Filename, err)
	}
	return img, nil
}
