package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/parser"
)

const recordSuffix = ".record.json"

// Processor parses dropped sheet files and writes the resulting record next
// to each source file as a JSON sidecar.
type Processor struct {
	engine *parser.Engine
	logger *zap.Logger
}

// NewProcessor creates a processor over the given engine.
func NewProcessor(engine *parser.Engine, logger *zap.Logger) *Processor {
	return &Processor{engine: engine, logger: logger}
}

// RecordPath returns the sidecar path for a sheet file.
func RecordPath(sheetPath string) string {
	return sheetPath + recordSuffix
}

func isRecordSidecar(path string) bool {
	return strings.HasSuffix(path, recordSuffix)
}

// ProcessSheet parses one sheet file and writes its record sidecar. Errors
// are logged, not returned; a bad file must not stop the watch loop.
func (p *Processor) ProcessSheet(ctx context.Context, path string) {
	runID := uuid.New().String()
	log := p.logger.With(zap.String("run_id", runID), zap.String("path", path))

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("failed to read sheet", zap.Error(err))
		return
	}

	record, err := p.engine.Parse(ctx, raw, filepath.Ext(path), "")
	if err != nil {
		log.Warn("failed to parse sheet", zap.Error(err))
		return
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Warn("failed to encode record", zap.Error(err))
		return
	}
	if err := os.WriteFile(RecordPath(path), data, 0600); err != nil {
		log.Warn("failed to write record", zap.Error(err))
		return
	}
	log.Info("sheet parsed",
		zap.String("source_hash", record.SourceHash),
		zap.Float64("overall_confidence", record.OverallConfidence),
		zap.Int("unresolved", len(record.Unresolved)))
}

// RemoveRecord deletes the sidecar for a removed sheet file, if present.
func (p *Processor) RemoveRecord(path string) {
	if err := os.Remove(RecordPath(path)); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove record", zap.String("path", path), zap.Error(err))
	}
}
