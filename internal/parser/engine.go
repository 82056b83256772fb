// Package parser orchestrates the extraction pipeline: document loading,
// strategy execution, validation, aggregation, and record assembly.
package parser

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/aggregate"
	"github.com/rollforge/sheetscan/internal/assemble"
	"github.com/rollforge/sheetscan/internal/config"
	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/locator"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/ocr"
	"github.com/rollforge/sheetscan/internal/schema"
	"github.com/rollforge/sheetscan/internal/strategy"
	"github.com/rollforge/sheetscan/internal/validate"
)

// Engine runs the full sheet extraction pipeline for one document at a time.
// It is safe for concurrent use; each Parse call builds its own strategy set.
type Engine struct {
	cfg        *config.ParserConfig
	registry   *schema.Registry
	recognizer ocr.Recognizer
	locator    *locator.Locator
	validator  *validate.Validator
	aggregator *aggregate.Aggregator
	assembler  *assemble.Assembler
	logger     *zap.Logger // optional; when set, logs pipeline events
}

// EngineOption configures optional Engine dependencies.
type EngineOption func(*Engine)

// WithLogger attaches a logger for pipeline events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRecognizer overrides the OCR recognizer. Passing nil disables the OCR
// fallback entirely, which keeps the pipeline usable without tesseract.
func WithRecognizer(r ocr.Recognizer) EngineOption {
	return func(e *Engine) {
		e.recognizer = r
	}
}

// NewEngine creates an extraction engine over the given field registry.
func NewEngine(cfg *config.ParserConfig, registry *schema.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:        cfg,
		registry:   registry,
		recognizer: ocr.NewClient(cfg.OCRLanguage),
		locator:    locator.New(registry, cfg.MaxAnchorDistance, cfg.ValueWindow),
		validator:  validate.New(registry),
		aggregator: aggregate.New(),
		assembler:  assemble.New(registry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse extracts a CharacterRecord from raw document bytes. ext is the
// original filename extension (may be empty; the format is sniffed from the
// bytes when it is wrong or missing). hint optionally names a known sheet
// template to probe first.
//
// Parse fails only when the document itself cannot be read. Strategy errors
// and timeouts degrade to missing candidates; a run where nothing extracts
// still returns a record with every field unresolved.
func (e *Engine) Parse(ctx context.Context, raw []byte, ext, hint string) (*models.CharacterRecord, error) {
	doc, err := document.Load(raw, ext, e.cfg.DensityThreshold)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	e.debug("document loaded",
		zap.String("format", string(doc.Format())),
		zap.Int("pages", doc.PageCount()),
		zap.Int("image_only_pages", len(doc.ImageOnlyPages())))

	strategies := e.strategies(hint)
	pool := e.runPrimary(ctx, doc, strategies)
	pool = e.validator.Filter(pool)

	coverage := e.coverage(pool)
	for _, s := range strategies {
		if s.Cost() != strategy.CostExpensive {
			continue
		}
		if s.Applicable(doc) || (coverage < e.cfg.MinFieldCoverage && doc.CanRasterize()) {
			e.debug("running expensive fallback",
				zap.String("strategy", s.Name()),
				zap.Float64("coverage", coverage),
				zap.Int("image_only_pages", len(doc.ImageOnlyPages())))
			extra := e.runStrategy(ctx, s, doc, e.cfg.OCRTimeout())
			pool = append(pool, e.validator.Filter(extra)...)
		}
	}

	resolved := make(map[string]models.ResolvedField, e.registry.Len())
	byField := groupByField(pool)
	for _, spec := range e.registry.Fields() {
		f := spec
		resolved[spec.ID] = e.aggregator.Resolve(&f, byField[spec.ID])
	}

	record := e.assembler.Assemble(doc.Hash(), resolved)
	e.debug("record assembled",
		zap.String("source_hash", record.SourceHash),
		zap.Float64("overall_confidence", record.OverallConfidence),
		zap.Int("unresolved", len(record.Unresolved)))
	return &record, nil
}

// strategies builds the strategy set for one run, ordered by cost class so
// the cheapest applicable strategy contributes first in the pool.
func (e *Engine) strategies(hint string) []strategy.Strategy {
	ss := []strategy.Strategy{
		strategy.NewTemplatePattern(e.registry, e.cfg.TemplateConfidence, hint),
		strategy.NewLayout(e.registry, e.locator, e.cfg.LayoutConfidence, e.cfg.ValueWindow),
		strategy.NewDirectText(e.registry, e.locator, e.cfg.DirectTextConfidence),
		strategy.NewOCRFallback(
			e.registry, e.locator, e.recognizer,
			e.cfg.OCRConfidence, e.cfg.OCRConfidenceCap, e.cfg.MinRasterWidth,
		),
	}
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Cost() < ss[j].Cost() })
	return ss
}

// runPrimary runs the sub-expensive cost tiers concurrently and pools their
// candidates. The expensive tier is gated separately after the coverage
// check. Result slots are indexed per strategy so the pool order does not
// depend on goroutine scheduling.
func (e *Engine) runPrimary(ctx context.Context, doc *document.SourceDocument, strategies []strategy.Strategy) []models.Candidate {
	results := make([][]models.Candidate, len(strategies))
	var wg sync.WaitGroup
	for i, s := range strategies {
		if s.Cost() == strategy.CostExpensive {
			continue
		}
		if !s.Applicable(doc) {
			e.debug("strategy not applicable", zap.String("strategy", s.Name()))
			continue
		}
		wg.Add(1)
		go func(i int, s strategy.Strategy) {
			defer wg.Done()
			results[i] = e.runStrategy(ctx, s, doc, e.cfg.StrategyTimeout())
		}(i, s)
	}
	wg.Wait()

	var pool []models.Candidate
	for _, r := range results {
		pool = append(pool, r...)
	}
	return pool
}

// runStrategy runs one strategy under its timeout. Errors and timeouts are
// logged and degrade to zero candidates.
func (e *Engine) runStrategy(ctx context.Context, s strategy.Strategy, doc *document.SourceDocument, timeout time.Duration) []models.Candidate {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cands, err := s.Extract(ctx, doc)
	if err != nil {
		e.warn("strategy failed", zap.String("strategy", s.Name()), zap.Error(err))
		return nil
	}
	e.debug("strategy finished",
		zap.String("strategy", s.Name()),
		zap.Int("candidates", len(cands)))
	return cands
}

// coverage is the fraction of schema fields with at least one pooled candidate.
func (e *Engine) coverage(pool []models.Candidate) float64 {
	if e.registry.Len() == 0 {
		return 1
	}
	seen := make(map[string]bool)
	for _, c := range pool {
		seen[c.FieldID] = true
	}
	return float64(len(seen)) / float64(e.registry.Len())
}

func groupByField(pool []models.Candidate) map[string][]models.Candidate {
	byField := make(map[string][]models.Candidate)
	for _, c := range pool {
		byField[c.FieldID] = append(byField[c.FieldID], c)
	}
	return byField
}

func (e *Engine) debug(msg string, fields ...zap.Field) {
	if e.logger != nil {
		e.logger.Debug(msg, fields...)
	}
}

func (e *Engine) warn(msg string, fields ...zap.Field) {
	if e.logger != nil {
		e.logger.Warn(msg, fields...)
	}
}
