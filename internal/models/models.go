package models

import (
	"image"
	"time"
)

// Status is the review state of an extraction record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PlaceholderConfidence is attached to every record. The vision service
// returns no usable confidence signal, so the score is a constant.
const PlaceholderConfidence = 0.95

// SourceImage is one uploaded image in an annotation session. IDs are
// zero-based and stable for the lifetime of the upload batch.
type SourceImage struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Processed bool   `json:"processed"`

	// Raster is the decoded pixel content, held in memory for the whole
	// session and never serialized.
	Raster image.Image `json:"-"`
}

// BoundingBox is a rectangular region in canvas-display coordinates
// marking one text instance to extract.
type BoundingBox struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the box as an integer pixel rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height))
}

// ExtractionRecord pairs one cropped region with its OCR result and
// review status. Records are never deleted; rejection is a terminal
// status, not removal.
type ExtractionRecord struct {
	ID         string      `json:"id"`
	ImageID    int         `json:"image_id"`
	ImageName  string      `json:"image_name"`
	BoxIndex   int         `json:"box_index"`
	Box        BoundingBox `json:"box"`
	Cropped    []byte      `json:"-"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}
