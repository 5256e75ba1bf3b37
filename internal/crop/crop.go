package crop

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// ToPNG cuts the given rectangle out of src and encodes it as a lossless
// PNG. The rectangle is intersected with the image bounds first, so boxes
// drawn partly outside the raster crop to the visible portion.
func ToPNG(src image.Image, rect image.Rectangle) ([]byte, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop region %v is outside image bounds %v", rect, src.Bounds())
	}

	cropped := imaging.Crop(src, rect)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
