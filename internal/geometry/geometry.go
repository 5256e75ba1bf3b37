package geometry

import (
	"math"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
)

// Zoom and rotation limits for the annotation canvas.
const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// MinBoxDim is the commit threshold for drawn boxes. A drag whose width
// or height does not exceed this many display units is discarded.
const MinBoxDim = 10.0

// Viewport holds the canvas display transform. The raster is drawn
// translated to the canvas center, rotated, then scaled. Bounding boxes
// are drawn in untransformed overlay space, so zoom and rotation changes
// never move a drawn box.
type Viewport struct {
	Zoom     float64 `json:"zoom"`
	Rotation int     `json:"rotation"`
}

// NewViewport returns a viewport at 1:1 scale with no rotation.
func NewViewport() Viewport {
	return Viewport{Zoom: 1.0}
}

// ZoomIn increases zoom by one step, clamped to MaxZoom.
func (v *Viewport) ZoomIn() {
	v.Zoom = math.Min(v.Zoom+ZoomStep, MaxZoom)
}

// ZoomOut decreases zoom by one step, clamped to MinZoom.
func (v *Viewport) ZoomOut() {
	v.Zoom = math.Max(v.Zoom-ZoomStep, MinZoom)
}

// Rotate advances the rotation a quarter turn clockwise, wrapping at a
// full turn.
func (v *Viewport) Rotate() {
	v.Rotation = (v.Rotation + 90) % 360
}

// Reset restores the default transform.
func (v *Viewport) Reset() {
	v.Zoom = 1.0
	v.Rotation = 0
}

// BoxFromDrag normalizes a pointer-down/pointer-up pair in canvas display
// coordinates into a box candidate anchored at the min corner.
func BoxFromDrag(x0, y0, x1, y1 float64) models.BoundingBox {
	return models.BoundingBox{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Committable reports whether a drag candidate is large enough to keep.
// Both dimensions must strictly exceed MinBoxDim.
func Committable(b models.BoundingBox) bool {
	return b.Width > MinBoxDim && b.Height > MinBoxDim
}
