// Package aggregate resolves the surviving candidates for each field into one
// decision, weighting independent agreement above raw strategy confidence.
package aggregate

import (
	"sort"

	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// Aggregator merges candidates from multiple strategies per field.
type Aggregator struct{}

// New creates an Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Resolve decides a field's value from its surviving candidates.
//
// Candidates that agree exactly on the normalized value form a group. A group
// backed by two or more independent strategies wins outright with combined
// confidence 1 − Π(1 − cᵢ): corroboration outranks any single dissenting
// candidate, however confident. Without corroboration the highest-confidence
// candidate wins, with ties broken by fixed strategy priority.
func (a *Aggregator) Resolve(spec *schema.FieldSpec, cands []models.Candidate) models.ResolvedField {
	field := models.ResolvedField{
		FieldID:    spec.ID,
		Reason:     models.ReasonNone,
		Candidates: cands,
	}
	if len(cands) == 0 {
		return field
	}

	groups := groupByValue(cands)

	if g := bestCorroborated(groups); g != nil {
		field.Value = g.value
		field.Resolved = true
		field.Confidence = g.combinedConfidence()
		field.Reason = models.ReasonAgreement
		field.Strategy = g.leadStrategy()
		field.OCR = g.allOCR()
		return field
	}

	best := pickBest(cands)
	field.Value = best.Normalized
	field.Resolved = true
	field.Confidence = best.Confidence
	field.Strategy = best.Strategy
	field.OCR = best.OCR
	if len(cands) == 1 {
		field.Reason = models.ReasonSoleSurvivor
	} else {
		field.Reason = models.ReasonHighestConfidence
	}
	return field
}

// group collects the candidates sharing one normalized value.
type group struct {
	value   string
	members []models.Candidate
}

// strategyCount returns the number of distinct strategies in the group;
// two candidates from the same strategy are not corroboration.
func (g *group) strategyCount() int {
	seen := make(map[string]bool)
	for _, m := range g.members {
		seen[m.Strategy] = true
	}
	return len(seen)
}

// combinedConfidence is the independent-agreement boost 1 − Π(1 − cᵢ).
func (g *group) combinedConfidence() float64 {
	miss := 1.0
	for _, m := range g.members {
		miss *= 1 - m.Confidence
	}
	return 1 - miss
}

// leadStrategy returns the highest-priority strategy that contributed.
func (g *group) leadStrategy() string {
	best := g.members[0]
	for _, m := range g.members[1:] {
		if models.StrategyPriority(m.Strategy) > models.StrategyPriority(best.Strategy) {
			best = m
		}
	}
	return best.Strategy
}

// allOCR reports whether every contributing candidate came through OCR.
func (g *group) allOCR() bool {
	for _, m := range g.members {
		if !m.OCR {
			return false
		}
	}
	return true
}

// groupByValue groups candidates by normalized value in deterministic order.
func groupByValue(cands []models.Candidate) []group {
	byValue := make(map[string][]models.Candidate)
	for _, c := range cands {
		byValue[c.Normalized] = append(byValue[c.Normalized], c)
	}
	values := make([]string, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Strings(values)

	groups := make([]group, 0, len(values))
	for _, v := range values {
		groups = append(groups, group{value: v, members: byValue[v]})
	}
	return groups
}

// bestCorroborated returns the corroborated group with the highest combined
// confidence, or nil when no group has two independent strategies.
func bestCorroborated(groups []group) *group {
	var best *group
	for i := range groups {
		g := &groups[i]
		if g.strategyCount() < 2 {
			continue
		}
		if best == nil || g.combinedConfidence() > best.combinedConfidence() {
			best = g
		}
	}
	return best
}

// pickBest returns the highest-confidence candidate, breaking ties by fixed
// strategy priority.
func pickBest(cands []models.Candidate) models.Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Confidence > best.Confidence {
			best = c
			continue
		}
		if c.Confidence == best.Confidence &&
			models.StrategyPriority(c.Strategy) > models.StrategyPriority(best.Strategy) {
			best = c
		}
	}
	return best
}
