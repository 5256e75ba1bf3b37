package providers

import (
	"context"
	"errors"
	"fmt"
)

// Config represents one vision extraction call.
type Config struct {
	Model           string
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
	Prompt          string
	ImagePNG        []byte
}

// Provider defines the interface for a vision service that extracts text
// from an image.
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// ErrNoText means the service answered successfully but found no usable
// text. Distinct from a service failure.
var ErrNoText = errors.New("no text detected")

// StatusError carries the HTTP-class status of a failed service call so
// the orchestrator can key its fallback policy on it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vision service returned status %d", e.Code)
	}
	return fmt.Sprintf("vision service returned status %d: %s", e.Code, e.Message)
}
