package models

// ResolutionReason explains how the aggregator chose a field's value.
type ResolutionReason string

const (
	// ReasonAgreement means two or more independent strategies produced the same normalized value.
	ReasonAgreement ResolutionReason = "agreement"
	// ReasonHighestConfidence means the highest-confidence candidate won without corroboration.
	ReasonHighestConfidence ResolutionReason = "highest-confidence"
	// ReasonSoleSurvivor means exactly one candidate survived validation.
	ReasonSoleSurvivor ResolutionReason = "sole-survivor"
	// ReasonNone means no candidate survived validation; the field is unresolved.
	ReasonNone ResolutionReason = "none"
)

// ResolvedField is the aggregator's decision for one schema field.
type ResolvedField struct {
	FieldID    string           `json:"field_id"`
	Value      string           `json:"value,omitempty"`
	Resolved   bool             `json:"resolved"`
	Confidence float64          `json:"confidence"`
	Reason     ResolutionReason `json:"reason"`
	Strategy   string           `json:"strategy,omitempty"`
	OCR        bool             `json:"ocr,omitempty"`
	Candidates []Candidate      `json:"candidates,omitempty"`
}

// CharacterRecord is the final output of a parse run: one ResolvedField per
// schema field in schema order, plus run-level summary data. It is immutable
// after assembly. Identical input bytes always produce an identical record.
type CharacterRecord struct {
	SourceHash        string          `json:"source_hash"`
	Fields            []ResolvedField `json:"fields"`
	Strategies        []string        `json:"strategies"`
	OverallConfidence float64         `json:"overall_confidence"`
	Unresolved        []string        `json:"unresolved_fields"`
}

// Field returns the resolved field with the given id, if present.
func (r *CharacterRecord) Field(id string) (ResolvedField, bool) {
	for _, f := range r.Fields {
		if f.FieldID == id {
			return f, true
		}
	}
	return ResolvedField{}, false
}

// Value returns the resolved value for a field id, or "" when unresolved.
func (r *CharacterRecord) Value(id string) string {
	if f, ok := r.Field(id); ok && f.Resolved {
		return f.Value
	}
	return ""
}
