package export

import (
	"fmt"
	"os"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/parquet-go/parquet-go"
)

// ManifestRow is one line of the parquet index written alongside an
// export batch: one row per artifact pair.
type ManifestRow struct {
	PairID      string  `parquet:"pair_id"`
	ImageFile   string  `parquet:"image_file"`
	TextFile    string  `parquet:"text_file"`
	RecordID    string  `parquet:"record_id"`
	SourceImage string  `parquet:"source_image"`
	BoxIndex    int32   `parquet:"box_index"`
	Text        string  `parquet:"text"`
	Confidence  float64 `parquet:"confidence"`
}

// WriteManifest writes a parquet index of the exported pairs next to the
// artifacts so downstream training tooling can load the batch without
// globbing the directory.
func WriteManifest(path string, pairs []Pair, records []models.ExtractionRecord) error {
	byID := make(map[string]models.ExtractionRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	rows := make([]ManifestRow, 0, len(pairs))
	for _, pair := range pairs {
		rec, ok := byID[pair.RecordID]
		if !ok {
			return fmt.Errorf("exported pair %s references unknown record %s", pair.ID, pair.RecordID)
		}
		rows = append(rows, ManifestRow{
			PairID:      pair.ID,
			ImageFile:   pair.ImageFile,
			TextFile:    pair.TextFile,
			RecordID:    rec.ID,
			SourceImage: rec.ImageName,
			BoxIndex:    int32(rec.BoxIndex),
			Text:        rec.Text,
			Confidence:  rec.Confidence,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[ManifestRow](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write manifest rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize manifest: %w", err)
	}
	return nil
}
