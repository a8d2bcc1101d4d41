package providers

import (
	"context"
	"strings"
)

// Request is a single visual question for a provider.
type Request struct {
	Image       []byte
	MimeType    string
	Prompt      string
	Model       string
	Temperature float64
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	Answer(ctx context.Context, req Request) (string, error)
}

// ImageFormat returns the subtype of an image MIME type ("image/png" -> "png"),
// defaulting to jpeg.
func ImageFormat(mimeType string) string {
	format := strings.TrimPrefix(strings.ToLower(mimeType), "image/")
	if format == "" || strings.Contains(format, "/") {
		return "jpeg"
	}
	return format
}
