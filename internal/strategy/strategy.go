// Package strategy implements the extraction strategy contract: each strategy
// proposes candidate field values for an immutable source document.
//
// Strategies are pure over the document and share no mutable state, so every
// applicable strategy for a run can execute concurrently. New strategies are
// added by implementing the contract, not by extending a dispatch chain.
package strategy

import (
	"context"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/models"
)

// CostClass orders strategies by expected execution cost; the orchestrator
// runs cheap strategies unconditionally and gates expensive ones.
type CostClass int

const (
	CostCheap CostClass = iota
	CostModerate
	CostExpensive
)

func (c CostClass) String() string {
	switch c {
	case CostCheap:
		return "cheap"
	case CostModerate:
		return "moderate"
	case CostExpensive:
		return "expensive"
	default:
		return "unknown"
	}
}

// Strategy extracts candidate field values from a source document.
type Strategy interface {
	// Name identifies the strategy in candidate provenance.
	Name() string
	// Cost declares the strategy's cost class.
	Cost() CostClass
	// Applicable reports whether the strategy can contribute anything for
	// this document; inapplicable strategies are skipped silently.
	Applicable(doc *document.SourceDocument) bool
	// Extract proposes zero or more candidates. It must be side-effect-free
	// with respect to the document and must honor ctx cancellation between
	// page iterations.
	Extract(ctx context.Context, doc *document.SourceDocument) ([]models.Candidate, error)
}
