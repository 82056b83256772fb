package strategy

import (
	"context"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/locator"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/ocr"
	"github.com/rollforge/sheetscan/internal/schema"
)

// OCRFallback rasterizes image-only pages, recognizes their text, and runs
// the same token scan the direct-text strategy uses. Its confidence is capped
// because recognition is inherently noisier than extraction, and every
// candidate it emits carries the OCR provenance flag.
//
// Per-page failures (no raster source, recognition errors, an absent
// tesseract install) reduce coverage; they never fail the run.
type OCRFallback struct {
	registry   *schema.Registry
	locator    *locator.Locator
	recognizer ocr.Recognizer
	confidence float64
	minWidth   int
}

// NewOCRFallback creates the OCR strategy. confidence is clamped to cap;
// every candidate the strategy emits carries the clamped value.
func NewOCRFallback(reg *schema.Registry, loc *locator.Locator, rec ocr.Recognizer, confidence, cap float64, minWidth int) *OCRFallback {
	if confidence > cap {
		confidence = cap
	}
	return &OCRFallback{
		registry:   reg,
		locator:    loc,
		recognizer: rec,
		confidence: confidence,
		minWidth:   minWidth,
	}
}

func (s *OCRFallback) Name() string { return models.StrategyOCR }

func (s *OCRFallback) Cost() CostClass { return CostExpensive }

// Applicable reports true when the document has a raster source and at least
// one page below the density threshold. The orchestrator may additionally
// invoke OCR when cheaper strategies left field coverage too low.
func (s *OCRFallback) Applicable(doc *document.SourceDocument) bool {
	return doc.CanRasterize() && len(doc.ImageOnlyPages()) > 0
}

func (s *OCRFallback) Extract(ctx context.Context, doc *document.SourceDocument) ([]models.Candidate, error) {
	if s.recognizer == nil || !doc.CanRasterize() {
		return nil, nil
	}

	pages := doc.ImageOnlyPages()
	if len(pages) == 0 {
		// Coverage-triggered pass: cheaper strategies found too little, so
		// every page becomes an OCR candidate.
		for i := 0; i < doc.PageCount(); i++ {
			pages = append(pages, i)
		}
	}

	var out []models.Candidate
	for _, idx := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		img, err := doc.Rasterize(idx, s.minWidth)
		if err != nil {
			continue
		}
		text, err := s.recognizer.Recognize(ctx, img)
		if err != nil || text == "" {
			continue
		}
		out = append(out, scanTokens(locator.Tokenize(text), idx, s.registry, s.locator, s.Name(), s.confidence, true)...)
	}
	return out, nil
}
