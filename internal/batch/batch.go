package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	// Image decoders for batch input files.
	_ "image/jpeg"
	_ "image/png"

	"github.com/devkota-labs/ocr-dataset-builder/internal/geometry"
	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
)

// BoxSpec is one region in a batch boxes file.
type BoxSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ImageSpec names an image file and the regions to extract from it.
type ImageSpec struct {
	File  string    `yaml:"file"`
	Boxes []BoxSpec `yaml:"boxes"`
}

// Spec is the parsed batch boxes file.
type Spec struct {
	Images []ImageSpec `yaml:"images"`
}

// LoadSpec reads and parses a batch boxes file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to read boxes file: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("failed to parse boxes file: %w", err)
	}
	if len(spec.Images) == 0 {
		return Spec{}, fmt.Errorf("boxes file lists no images")
	}
	for i, img := range spec.Images {
		if img.File == "" {
			return Spec{}, fmt.Errorf("image entry %d has no file", i)
		}
	}
	return spec, nil
}

// Run extracts text from every committable region in the spec, in file
// order, and returns the records marked approved. Regions below the
// minimum size are skipped with a warning rather than failing the run.
// Image file paths are resolved relative to baseDir.
func Run(ctx context.Context, svc *ocr.Service, spec Spec, baseDir string) ([]models.ExtractionRecord, error) {
	var all []models.ExtractionRecord

	for fileIdx, entry := range spec.Images {
		path := entry.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		img, err := loadImage(path)
		if err != nil {
			return all, err
		}

		var boxList []models.BoundingBox
		for i, b := range entry.Boxes {
			box := models.BoundingBox{
				ID:     int64(i + 1),
				X:      b.X,
				Y:      b.Y,
				Width:  b.Width,
				Height: b.Height,
			}
			if !geometry.Committable(box) {
				slog.Warn("Skipping region below minimum size", "file", entry.File, "index", i, "width", b.Width, "height", b.Height)
				continue
			}
			boxList = append(boxList, box)
		}
		if len(boxList) == 0 {
			slog.Warn("No usable regions for image", "file", entry.File)
			continue
		}

		src := models.SourceImage{
			ID:     fileIdx,
			Name:   filepath.Base(entry.File),
			Raster: img,
		}
		records, err := svc.ExtractBoxes(ctx, src, boxList)
		if err != nil {
			return all, fmt.Errorf("extraction failed for %s: %w", entry.File, err)
		}
		for i := range records {
			records[i].Status = models.StatusApproved
		}
		all = append(all, records...)

		slog.Info("Extracted regions", "file", entry.File, "regions", len(records))
	}

	return all, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
