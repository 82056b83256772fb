// Package ocr provides optical character recognition for scanned sheet pages.
//
// It wraps the Tesseract engine via gosseract and requires Tesseract to be
// installed on the host. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
//
// A missing engine is a recoverable condition: recognition errors out and the
// OCR fallback strategy simply contributes no candidates.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer extracts text from a rendered page image. The parser depends on
// this interface so tests can substitute a deterministic implementation.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// Client wraps Tesseract for OCR operations. It serializes access to the
// underlying engine, which is not safe for concurrent use.
type Client struct {
	mu       sync.Mutex
	language string
}

// NewClient creates an OCR client recognizing the given tesseract language
// string (e.g. "eng" or "eng+fra").
func NewClient(language string) *Client {
	if language == "" {
		language = "eng"
	}
	return &Client{language: language}
}

// Recognize performs OCR on image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) Recognize(ctx context.Context, imageData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(c.language, "+")...); err != nil {
		return "", fmt.Errorf("set OCR language %q: %w", c.language, err)
	}
	if err := client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set OCR image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
