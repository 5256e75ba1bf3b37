package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/devkota-labs/ocr-dataset-builder/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Gemini is a provider for Google Gemini vision models.
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider using the given API key.
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

// ExtractText sends the image and prompt to Gemini and returns the
// trimmed extracted text. Service failures come back as
// *providers.StatusError; an empty answer is providers.ErrNoText.
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini API key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(config.Temperature)
	if config.TopK > 0 {
		model.SetTopK(config.TopK)
	}
	if config.TopP > 0 {
		model.SetTopP(config.TopP)
	}
	if config.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(config.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(config.Prompt),
		genai.ImageData("png", config.ImagePNG),
	)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Candidates) == 0 {
		return "", providers.ErrNoText
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", providers.ErrNoText
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}

	trimmed := strings.TrimSpace(string(txt))
	if trimmed == "" {
		return "", providers.ErrNoText
	}
	return trimmed, nil
}

// classify maps a service error onto the HTTP-class status the extraction
// pipeline keys its fallback policy on. The genai client surfaces errors
// as googleapi errors over REST and gax API errors over gRPC.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &providers.StatusError{Code: gerr.Code, Message: gerr.Message}
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if code := aerr.HTTPCode(); code > 0 {
			return &providers.StatusError{Code: code, Message: aerr.Error()}
		}
		if st := aerr.GRPCStatus(); st != nil && st.Code() != codes.OK {
			return &providers.StatusError{Code: httpFromGRPC(st.Code()), Message: st.Message()}
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		return &providers.StatusError{Code: httpFromGRPC(st.Code()), Message: st.Message()}
	}

	return err
}

func httpFromGRPC(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
