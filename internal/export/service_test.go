package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/parquet-go/parquet-go"
)

// memSink records writes in order with timestamps.
type memSink struct {
	names []string
	data  map[string][]byte
	times []time.Time
}

func newMemSink() *memSink {
	return &memSink{data: make(map[string][]byte)}
}

func (m *memSink) Write(_ context.Context, name string, data []byte) error {
	m.names = append(m.names, name)
	m.data[name] = append([]byte(nil), data...)
	m.times = append(m.times, time.Now())
	return nil
}

func record(id, text string, status models.Status) models.ExtractionRecord {
	return models.ExtractionRecord{
		ID:         id,
		ImageName:  "page1.png",
		Text:       text,
		Cropped:    []byte{0x89, 'P', 'N', 'G'},
		Confidence: models.PlaceholderConfidence,
		Status:     status,
	}
}

func TestExportApprovedNoApproved(t *testing.T) {
	sink := newMemSink()
	svc := NewService(sink)

	records := []models.ExtractionRecord{
		record("r1", "a", models.StatusPending),
		record("r2", "b", models.StatusRejected),
	}
	pairs, err := svc.ExportApproved(context.Background(), records)
	if err != ErrNoApproved {
		t.Fatalf("Expected ErrNoApproved, got %v", err)
	}
	if len(pairs) != 0 || len(sink.names) != 0 {
		t.Error("No-op export must not generate artifacts")
	}
}

func TestExportApprovedPairs(t *testing.T) {
	sink := newMemSink()
	svc := NewService(sink)

	records := []models.ExtractionRecord{
		record("r1", "नमस्ते", models.StatusApproved),
		record("r2", "skipped", models.StatusRejected),
		record("r3", "hello\nworld", models.StatusApproved),
	}

	pairs, err := svc.ExportApproved(context.Background(), records)
	if err != nil {
		t.Fatalf("ExportApproved failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].RecordID != "r1" || pairs[1].RecordID != "r3" {
		t.Errorf("Pairs out of order: %s, %s", pairs[0].RecordID, pairs[1].RecordID)
	}
	if pairs[0].ID == pairs[1].ID {
		t.Error("Pair identifiers must be unique")
	}

	for _, pair := range pairs {
		if !strings.HasSuffix(pair.ImageFile, ".png") {
			t.Errorf("Image artifact suffix wrong: %s", pair.ImageFile)
		}
		if !strings.HasSuffix(pair.TextFile, ".gt.txt") {
			t.Errorf("Text artifact suffix wrong: %s", pair.TextFile)
		}
		if !strings.HasPrefix(pair.ImageFile, pair.ID) || !strings.HasPrefix(pair.TextFile, pair.ID) {
			t.Errorf("Pair %s artifacts do not share the identifier", pair.ID)
		}
	}

	// Text artifacts carry the record text byte for byte.
	if got := string(sink.data[pairs[0].TextFile]); got != "नमस्ते" {
		t.Errorf("Text artifact %q", got)
	}
	if got := string(sink.data[pairs[1].TextFile]); got != "hello\nworld" {
		t.Errorf("Text artifact %q", got)
	}
	// Image before text within each pair.
	if sink.names[0] != pairs[0].ImageFile || sink.names[1] != pairs[0].TextFile {
		t.Errorf("Write order wrong: %v", sink.names)
	}
}

func TestExportIdentifiersUniqueAcrossExports(t *testing.T) {
	sink := newMemSink()
	svc := NewService(sink)
	records := []models.ExtractionRecord{record("r1", "a", models.StatusApproved)}

	first, err := svc.ExportApproved(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ExportApproved(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].ID == second[0].ID {
		t.Error("Repeated exports reused a pair identifier")
	}
}

func TestExportStagger(t *testing.T) {
	sink := newMemSink()
	svc := NewService(sink).WithStagger(30 * time.Millisecond)

	records := []models.ExtractionRecord{
		record("r1", "a", models.StatusApproved),
		record("r2", "b", models.StatusApproved),
	}
	if _, err := svc.ExportApproved(context.Background(), records); err != nil {
		t.Fatalf("ExportApproved failed: %v", err)
	}

	// Third write (second pair's image) starts at least one delay after
	// the first pair finished.
	gap := sink.times[2].Sub(sink.times[1])
	if gap < 25*time.Millisecond {
		t.Errorf("Pairs not staggered: gap %v", gap)
	}
}

func TestExportStaggerCancellation(t *testing.T) {
	sink := newMemSink()
	svc := NewService(sink).WithStagger(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	records := []models.ExtractionRecord{
		record("r1", "a", models.StatusApproved),
		record("r2", "b", models.StatusApproved),
	}

	done := make(chan struct{})
	var pairs []Pair
	var err error
	go func() {
		pairs, err = svc.ExportApproved(ctx, records)
		close(done)
	}()

	cancel()
	<-done
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(pairs) != 1 {
		t.Errorf("Expected the first pair to have completed, got %d", len(pairs))
	}
}

func TestDirSinkAndManifest(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(DirSink{Dir: dir})

	records := []models.ExtractionRecord{
		record("r1", "text one", models.StatusApproved),
		record("r2", "text two", models.StatusApproved),
	}
	pairs, err := svc.ExportApproved(context.Background(), records)
	if err != nil {
		t.Fatalf("ExportApproved failed: %v", err)
	}

	for _, pair := range pairs {
		for _, name := range []string{pair.ImageFile, pair.TextFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("Artifact %s not written: %v", name, err)
			}
		}
	}

	manifestPath := filepath.Join(dir, "manifest.parquet")
	if err := WriteManifest(manifestPath, pairs, records); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	rows, err := parquet.ReadFile[ManifestRow](manifestPath)
	if err != nil {
		t.Fatalf("Manifest not readable: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 manifest rows, got %d", len(rows))
	}
	if rows[0].Text != "text one" || rows[1].Text != "text two" {
		t.Errorf("Manifest text wrong: %q, %q", rows[0].Text, rows[1].Text)
	}
	if rows[0].PairID != pairs[0].ID {
		t.Errorf("Manifest pair id %q, want %q", rows[0].PairID, pairs[0].ID)
	}
}
