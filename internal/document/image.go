package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// loadImagePages treats the bytes as one scanned page with no extractable
// text; the raster cache serves the image itself to the OCR fallback.
func loadImagePages(raw []byte) ([]Page, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrUnreadableDocument, err)
	}
	return []Page{{
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
	}}, nil
}
