// Package models defines core data structures for candidates, resolved fields, and character records.
package models

// Strategy names recorded in candidate provenance.
const (
	StrategyTemplate   = "template"
	StrategyLayout     = "layout"
	StrategyDirectText = "direct-text"
	StrategyOCR        = "ocr-fallback"
)

// StrategyPriority returns the fixed tiebreak rank of a strategy; higher wins
// when candidates have equal confidence and no corroboration.
func StrategyPriority(name string) int {
	switch name {
	case StrategyTemplate:
		return 4
	case StrategyLayout:
		return 3
	case StrategyDirectText:
		return 2
	case StrategyOCR:
		return 1
	default:
		return 0
	}
}

// Candidate is one strategy's proposed value for one schema field.
// Candidates are produced once and never mutated.
type Candidate struct {
	FieldID    string  `json:"field_id"`
	RawText    string  `json:"raw_text"`
	Normalized string  `json:"normalized"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
	OCR        bool    `json:"ocr"`
}
