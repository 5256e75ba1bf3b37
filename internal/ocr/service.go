package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/crop"
	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/devkota-labs/ocr-dataset-builder/internal/providers"
)

// Primary and fallback vision models. The fallback is tried exactly once,
// and only after a 400-class response from the primary.
const (
	PrimaryModel  = "gemini-1.5-pro"
	FallbackModel = "gemini-1.0-pro-vision"
)

// Diagnostic markers recorded in place of extracted text. They stay
// user-visible through review rather than failing the batch.
const (
	MarkerNoText         = "[No text detected]"
	MarkerNoTextFallback = "[No text detected with alternative model]"
	marker403            = "[Error 403: Enable Generative Language API in Google Cloud Console]"
)

var (
	// ErrNoBoxes means extraction was requested with nothing to extract.
	ErrNoBoxes = errors.New("no bounding boxes drawn")

	// ErrMissingAPIKey blocks extraction entirely. Callers should route
	// the user to configuration.
	ErrMissingAPIKey = errors.New("vision API key not configured")
)

// Service crops annotated regions out of a source image and runs them
// through the vision provider one box at a time, in draw order. This is
// the only component in the pipeline that performs network I/O.
type Service struct {
	provider providers.Provider
}

// NewService creates an extraction service backed by the given provider.
func NewService(p providers.Provider) *Service {
	return &Service{provider: p}
}

func (s *Service) buildPrompt() string {
	return "Extract all text from this image. Return ONLY the extracted text without any explanation. Support Nepali, Hindi, and English text."
}

// ExtractBoxes produces one pending record per box, in input order, with
// BoxIndex matching each box's position. Per-box failures are folded into
// the record text as diagnostic markers so one bad region never aborts
// the rest of the batch. Only context cancellation stops the loop early.
func (s *Service) ExtractBoxes(ctx context.Context, img models.SourceImage, boxList []models.BoundingBox) ([]models.ExtractionRecord, error) {
	if len(boxList) == 0 {
		return nil, ErrNoBoxes
	}

	batch := time.Now().UnixMilli()
	records := make([]models.ExtractionRecord, 0, len(boxList))

	for idx, box := range boxList {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec := models.ExtractionRecord{
			ID:         fmt.Sprintf("%d_%d", batch, idx),
			ImageID:    img.ID,
			ImageName:  img.Name,
			BoxIndex:   idx,
			Box:        box,
			Confidence: models.PlaceholderConfidence,
			Status:     models.StatusPending,
			CreatedAt:  time.Now(),
		}

		pngData, err := crop.ToPNG(img.Raster, box.Rect())
		if err != nil {
			rec.Text = fmt.Sprintf("[Error: %s]", err)
			records = append(records, rec)
			continue
		}
		rec.Cropped = pngData
		rec.Text = s.recognize(ctx, pngData)

		slog.Info("Box extracted", "image", img.Name, "box", idx, "chars", len(rec.Text))
		records = append(records, rec)
	}

	return records, nil
}

// recognize calls the primary model and encodes the outcome as either the
// extracted text or one of the diagnostic markers.
func (s *Service) recognize(ctx context.Context, pngData []byte) string {
	config := providers.Config{
		Model:           PrimaryModel,
		Temperature:     0.4,
		TopK:            32,
		TopP:            1,
		MaxOutputTokens: 2048,
		Prompt:          s.buildPrompt(),
		ImagePNG:        pngData,
	}

	text, err := s.provider.ExtractText(ctx, config)
	if err == nil {
		return text
	}
	if errors.Is(err, providers.ErrNoText) {
		return MarkerNoText
	}

	var serr *providers.StatusError
	if errors.As(err, &serr) {
		switch {
		case serr.Code == http.StatusBadRequest:
			// Malformed-request responses get one retry against the
			// lower-capability fallback model.
			return s.recognizeFallback(ctx, config)
		case serr.Code == http.StatusForbidden:
			return marker403
		case serr.Message != "":
			return fmt.Sprintf("[API Error: %s]", serr.Message)
		default:
			return fmt.Sprintf("[HTTP %d]", serr.Code)
		}
	}

	return fmt.Sprintf("[Error: %s]", err)
}

func (s *Service) recognizeFallback(ctx context.Context, config providers.Config) string {
	config.Model = FallbackModel
	slog.Warn("Primary model rejected request, retrying with fallback", "model", config.Model)

	text, err := s.provider.ExtractText(ctx, config)
	if err == nil {
		return text
	}
	if errors.Is(err, providers.ErrNoText) {
		return MarkerNoTextFallback
	}
	return fmt.Sprintf("[Alternative model failed: %s]", err)
}
