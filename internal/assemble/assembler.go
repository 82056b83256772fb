// Package assemble builds the final CharacterRecord from per-field
// resolutions. Assembly never fails: a run with no usable candidates still
// yields a record with every field marked unresolved.
package assemble

import (
	"sort"

	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// Assembler turns resolved fields into a CharacterRecord.
type Assembler struct {
	registry *schema.Registry
}

// New creates an Assembler over the given field registry.
func New(registry *schema.Registry) *Assembler {
	return &Assembler{registry: registry}
}

// Assemble builds a record from the per-field resolutions of one parse run.
// Fields appear in registry order; missing resolutions become unresolved
// entries. Overall confidence is the importance-weighted mean of per-field
// confidence, with unresolved fields contributing zero.
func (a *Assembler) Assemble(sourceHash string, resolved map[string]models.ResolvedField) models.CharacterRecord {
	record := models.CharacterRecord{
		SourceHash: sourceHash,
		Fields:     make([]models.ResolvedField, 0, a.registry.Len()),
	}

	strategies := make(map[string]bool)
	var weightedSum, weightTotal float64

	for _, spec := range a.registry.Fields() {
		field, ok := resolved[spec.ID]
		if !ok {
			field = models.ResolvedField{FieldID: spec.ID, Reason: models.ReasonNone}
		}
		record.Fields = append(record.Fields, field)

		weight := spec.Importance
		if weight <= 0 {
			weight = 1
		}
		weightTotal += weight
		if field.Resolved {
			weightedSum += weight * field.Confidence
			if field.Strategy != "" {
				strategies[field.Strategy] = true
			}
		} else {
			record.Unresolved = append(record.Unresolved, spec.ID)
		}
	}

	if weightTotal > 0 {
		record.OverallConfidence = weightedSum / weightTotal
	}

	record.Strategies = make([]string, 0, len(strategies))
	for s := range strategies {
		record.Strategies = append(record.Strategies, s)
	}
	sort.Strings(record.Strategies)

	return record
}
