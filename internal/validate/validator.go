// Package validate applies schema-driven acceptance rules to candidates.
//
// Validation is a pure check: an invalid candidate is dropped before
// aggregation and never penalizes other candidates. A field whose candidates
// all fail ends up unresolved, never silently defaulted or clamped.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// maxStringLen caps free-form string values; anything longer is a runaway
// window over unrelated sheet text, not a field value.
const maxStringLen = 120

// minPrintableRatio is the minimum fraction of letters, digits, and spaces a
// string value must contain; OCR line noise fails it.
const minPrintableRatio = 0.6

// Outcome is the result of validating one candidate.
type Outcome struct {
	Valid  bool
	Reason string
}

func pass() Outcome { return Outcome{Valid: true} }

func fail(format string, args ...interface{}) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

// Validator checks candidates against their field specs.
type Validator struct {
	registry *schema.Registry
}

// New creates a Validator over the given schema.
func New(reg *schema.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate checks one candidate's normalized value against its field's rule.
// The candidate is never mutated.
func (v *Validator) Validate(c models.Candidate) Outcome {
	spec, ok := v.registry.Get(c.FieldID)
	if !ok {
		return fail("unknown field %q", c.FieldID)
	}
	switch spec.Type {
	case schema.TypeInteger:
		return validateInteger(spec, c.Normalized)
	case schema.TypeEnum:
		return validateEnum(spec, c.Normalized)
	default:
		return validateString(c.Normalized)
	}
}

// Filter returns the candidates that pass validation, preserving order.
func (v *Validator) Filter(cands []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(cands))
	for _, c := range cands {
		if v.Validate(c).Valid {
			out = append(out, c)
		}
	}
	return out
}

func validateInteger(spec *schema.FieldSpec, value string) Outcome {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fail("not an integer: %q", value)
	}
	if n < spec.Min || n > spec.Max {
		return fail("%d outside range %d..%d", n, spec.Min, spec.Max)
	}
	return pass()
}

func validateEnum(spec *schema.FieldSpec, value string) Outcome {
	if !spec.InVocabulary(value) {
		return fail("%q not in vocabulary", value)
	}
	return pass()
}

func validateString(value string) Outcome {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fail("empty value")
	}
	if len(trimmed) > maxStringLen {
		return fail("value exceeds %d characters", maxStringLen)
	}
	printable := 0
	total := 0
	for _, r := range trimmed {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '\'' || r == '-' {
			printable++
		}
	}
	if float64(printable) < minPrintableRatio*float64(total) {
		return fail("value is mostly non-text")
	}
	return pass()
}
