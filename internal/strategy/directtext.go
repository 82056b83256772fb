package strategy

import (
	"context"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/locator"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// DirectText scans each page's extractable text as a flat token stream and
// feeds it to the field locator. It is the cheapest text strategy and the
// baseline every other strategy is measured against.
type DirectText struct {
	registry   *schema.Registry
	locator    *locator.Locator
	confidence float64
}

// NewDirectText creates the direct-text strategy.
func NewDirectText(reg *schema.Registry, loc *locator.Locator, confidence float64) *DirectText {
	return &DirectText{registry: reg, locator: loc, confidence: confidence}
}

func (s *DirectText) Name() string { return models.StrategyDirectText }

func (s *DirectText) Cost() CostClass { return CostCheap }

// Applicable reports true when any page carries extractable text.
func (s *DirectText) Applicable(doc *document.SourceDocument) bool {
	for _, p := range doc.Pages() {
		if len(p.Tokens) > 0 {
			return true
		}
	}
	return false
}

func (s *DirectText) Extract(ctx context.Context, doc *document.SourceDocument) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if len(page.Tokens) == 0 {
			continue
		}
		out = append(out, scanTokens(page.Tokens, page.Index, s.registry, s.locator, s.Name(), s.confidence, false)...)
	}
	return out, nil
}

// scanTokens runs the locator over a token stream for every schema field.
// Shared by the text-driven strategies (direct text and OCR fallback).
func scanTokens(tokens []document.Token, page int, reg *schema.Registry, loc *locator.Locator, strategyName string, confidence float64, viaOCR bool) []models.Candidate {
	var out []models.Candidate
	for _, spec := range reg.Fields() {
		f := spec
		m, ok := loc.Locate(tokens, &f)
		if !ok {
			continue
		}
		out = append(out, models.Candidate{
			FieldID:    f.ID,
			RawText:    m.Raw,
			Normalized: m.Normalized,
			Strategy:   strategyName,
			Confidence: confidence,
			Page:       page,
			OCR:        viaOCR,
		})
	}
	return out
}
