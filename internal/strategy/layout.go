package strategy

import (
	"context"
	"sort"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/locator"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// Layout geometry tolerances, in PDF points.
const (
	layoutRowTolerance = 3.0
	layoutColTolerance = 60.0
)

// Layout associates a label token with the nearest value token to its right
// or below it, using token positions. It tolerates multi-column sheets where
// a flat reading order interleaves unrelated fields, at a higher cost than
// the direct-text scan.
type Layout struct {
	registry   *schema.Registry
	locator    *locator.Locator
	confidence float64
	window     int
}

// NewLayout creates the layout-aware strategy.
func NewLayout(reg *schema.Registry, loc *locator.Locator, confidence float64, window int) *Layout {
	return &Layout{registry: reg, locator: loc, confidence: confidence, window: window}
}

func (s *Layout) Name() string { return models.StrategyLayout }

func (s *Layout) Cost() CostClass { return CostModerate }

// Applicable reports true when the document carries positioned tokens.
func (s *Layout) Applicable(doc *document.SourceDocument) bool {
	return doc.HasPositions()
}

func (s *Layout) Extract(ctx context.Context, doc *document.SourceDocument) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.extractPage(&page)...)
	}
	return out, nil
}

func (s *Layout) extractPage(page *document.Page) []models.Candidate {
	var out []models.Candidate
	for _, spec := range s.registry.Fields() {
		f := spec
		for _, span := range s.locator.AnchorSpans(page.Tokens, &f) {
			anchor := page.Tokens[span.Start+span.Len-1]
			if !anchor.HasPos {
				continue
			}
			values := s.valuesRightOf(page.Tokens, span, anchor)
			raw, normalized, ok := s.parse(&f, values)
			if !ok {
				values = s.valuesBelow(page.Tokens, span, anchor)
				raw, normalized, ok = s.parse(&f, values)
			}
			if !ok {
				continue
			}
			out = append(out, models.Candidate{
				FieldID:    f.ID,
				RawText:    raw,
				Normalized: normalized,
				Strategy:   s.Name(),
				Confidence: s.confidence,
				Page:       page.Index,
			})
			break
		}
	}
	return out
}

func (s *Layout) parse(spec *schema.FieldSpec, values []document.Token) (string, string, bool) {
	if len(values) == 0 {
		return "", "", false
	}
	if len(values) > s.window {
		values = values[:s.window]
	}
	return s.locator.ParseValue(spec, values)
}

// valuesRightOf returns the tokens on the anchor's row, right of it, in
// reading order. Span members are excluded so multi-token labels do not leak
// into their own value window.
func (s *Layout) valuesRightOf(tokens []document.Token, span locator.Span, anchor document.Token) []document.Token {
	tol := rowToleranceFor(anchor)
	var out []document.Token
	for i, t := range tokens {
		if !t.HasPos || inSpan(i, span) {
			continue
		}
		if absDiff(t.Y, anchor.Y) <= tol && t.X > anchor.X {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// valuesBelow returns the tokens of the nearest row under the anchor that
// starts within the anchor's column. PDF Y grows upward, so "below" means a
// smaller Y.
func (s *Layout) valuesBelow(tokens []document.Token, span locator.Span, anchor document.Token) []document.Token {
	tol := rowToleranceFor(anchor)

	// Find the closest row beneath the anchor with a token in column range.
	bestY, found := 0.0, false
	for i, t := range tokens {
		if !t.HasPos || inSpan(i, span) {
			continue
		}
		if t.Y < anchor.Y-tol && absDiff(t.X, anchor.X) <= layoutColTolerance {
			if !found || t.Y > bestY {
				bestY, found = t.Y, true
			}
		}
	}
	if !found {
		return nil
	}

	var out []document.Token
	for i, t := range tokens {
		if !t.HasPos || inSpan(i, span) {
			continue
		}
		if absDiff(t.Y, bestY) <= tol && t.X >= anchor.X-layoutColTolerance {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

func rowToleranceFor(anchor document.Token) float64 {
	if tol := anchor.FontSize * 0.6; tol > layoutRowTolerance {
		return tol
	}
	return layoutRowTolerance
}

func inSpan(i int, span locator.Span) bool {
	return i >= span.Start && i < span.Start+span.Len
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
