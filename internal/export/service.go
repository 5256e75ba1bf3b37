package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/google/uuid"
)

// DownloadStagger is the pause between artifact pairs when the sink is a
// download surface. Browsers silently drop near-simultaneous download
// triggers, so pairs are spaced out. Filesystem sinks do not need it.
const DownloadStagger = 200 * time.Millisecond

// ErrNoApproved means the record set contains nothing to export.
var ErrNoApproved = errors.New("no approved records to export")

// Sink receives finished artifacts by name.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// DirSink writes artifacts into a directory, creating it on first use.
type DirSink struct {
	Dir string
}

func (d DirSink) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return nil
}

// Pair names one exported image/text artifact set. Both files share the
// pair identifier.
type Pair struct {
	ID        string `json:"id"`
	ImageFile string `json:"image_file"`
	TextFile  string `json:"text_file"`
	RecordID  string `json:"record_id"`
}

// Service materializes approved records as matched image/text artifact
// pairs.
type Service struct {
	sink  Sink
	delay time.Duration
}

// NewService creates an exporter over the given sink with no stagger.
func NewService(sink Sink) *Service {
	return &Service{sink: sink}
}

// WithStagger sets the inter-pair delay for throttle-sensitive sinks.
func (s *Service) WithStagger(d time.Duration) *Service {
	s.delay = d
	return s
}

// ExportApproved writes one artifact pair per approved record, in list
// order: the cropped raster as <id>.png and the record's exact text as
// <id>.gt.txt. Identifiers are collision-free across repeated exports in
// the same session.
func (s *Service) ExportApproved(ctx context.Context, records []models.ExtractionRecord) ([]Pair, error) {
	var approved []models.ExtractionRecord
	for _, rec := range records {
		if rec.Status == models.StatusApproved {
			approved = append(approved, rec)
		}
	}
	if len(approved) == 0 {
		return nil, ErrNoApproved
	}

	pairs := make([]Pair, 0, len(approved))
	for i, rec := range approved {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return pairs, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		id := uuid.NewString()
		pair := Pair{
			ID:        id,
			RecordID:  rec.ID,
			ImageFile: id + ".png",
			TextFile:  id + ".gt.txt",
		}

		if err := s.sink.Write(ctx, pair.ImageFile, rec.Cropped); err != nil {
			return pairs, fmt.Errorf("failed to export image artifact: %w", err)
		}
		if err := s.sink.Write(ctx, pair.TextFile, []byte(rec.Text)); err != nil {
			return pairs, fmt.Errorf("failed to export text artifact: %w", err)
		}
		pairs = append(pairs, pair)
	}

	slog.Info("Export complete", "pairs", len(pairs))
	return pairs, nil
}
