package strategy

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/models"
	"github.com/rollforge/sheetscan/internal/schema"
)

// Rule maps one regular expression to one schema field; the first capture
// group is the raw value.
type Rule struct {
	FieldID string
	Pattern *regexp.Regexp
}

// Template fingerprints one known export format: a signature string that
// identifies it plus exact extraction rules for its fixed field layout.
type Template struct {
	ID        string
	Signature string
	Rules     []Rule
}

// BuiltinTemplates returns the registry of recognized export formats.
func BuiltinTemplates() []Template {
	return []Template{
		{
			ID:        "dndbeyond",
			Signature: "dndbeyond.com",
			Rules: []Rule{
				{"name", regexp.MustCompile(`(?i)character name[:\s]+([A-Za-z' -]+?)\s*(?:race|class|$)`)},
				{"class", regexp.MustCompile(`(?i)class\s*&\s*level[:\s]+([A-Za-z]+)`)},
				{"level", regexp.MustCompile(`(?i)class\s*&\s*level[:\s]+[A-Za-z]+\s+(\d+)`)},
				{"race", regexp.MustCompile(`(?i)\brace[:\s]+([A-Za-z' -]+?)\s*(?:alignment|background|$)`)},
				{"background", regexp.MustCompile(`(?i)background[:\s]+([A-Za-z' ]+?)\s*(?:alignment|player|$)`)},
				{"alignment", regexp.MustCompile(`(?i)alignment[:\s]+((?:lawful|neutral|chaotic|true)(?:\s+(?:good|neutral|evil))?)`)},
				{"strength", regexp.MustCompile(`(?i)\bstrength\s+(\d+)`)},
				{"dexterity", regexp.MustCompile(`(?i)\bdexterity\s+(\d+)`)},
				{"constitution", regexp.MustCompile(`(?i)\bconstitution\s+(\d+)`)},
				{"intelligence", regexp.MustCompile(`(?i)\bintelligence\s+(\d+)`)},
				{"wisdom", regexp.MustCompile(`(?i)\bwisdom\s+(\d+)`)},
				{"charisma", regexp.MustCompile(`(?i)\bcharisma\s+(\d+)`)},
				{"armor_class", regexp.MustCompile(`(?i)armor\s+class[:\s]+(\d+)`)},
				{"hit_points", regexp.MustCompile(`(?i)hit point maximum[:\s]+(\d+)`)},
				{"speed", regexp.MustCompile(`(?i)\bspeed[:\s]+(\d+)`)},
			},
		},
		{
			ID:        "roll20",
			Signature: "roll20.net",
			Rules: []Rule{
				{"name", regexp.MustCompile(`(?i)\bname[:\s]+([A-Za-z' -]+?)\s*(?:race|class|level|$)`)},
				{"class", regexp.MustCompile(`(?i)\bclass[:\s]+([A-Za-z]+)`)},
				{"level", regexp.MustCompile(`(?i)\blevel[:\s]+(\d+)`)},
				{"race", regexp.MustCompile(`(?i)\brace[:\s]+([A-Za-z' -]+?)\s*(?:alignment|background|class|$)`)},
				{"alignment", regexp.MustCompile(`(?i)alignment[:\s]+((?:lawful|neutral|chaotic|true)(?:\s+(?:good|neutral|evil))?)`)},
				{"strength", regexp.MustCompile(`(?i)\bstr(?:ength)?[:\s]+(\d+)`)},
				{"dexterity", regexp.MustCompile(`(?i)\bdex(?:terity)?[:\s]+(\d+)`)},
				{"constitution", regexp.MustCompile(`(?i)\bcon(?:stitution)?[:\s]+(\d+)`)},
				{"intelligence", regexp.MustCompile(`(?i)\bint(?:elligence)?[:\s]+(\d+)`)},
				{"wisdom", regexp.MustCompile(`(?i)\bwis(?:dom)?[:\s]+(\d+)`)},
				{"charisma", regexp.MustCompile(`(?i)\bcha(?:risma)?[:\s]+(\d+)`)},
				{"armor_class", regexp.MustCompile(`(?i)\bac[:\s]+(\d+)`)},
				{"hit_points", regexp.MustCompile(`(?i)\bhp[:\s]+(\d+)`)},
				{"speed", regexp.MustCompile(`(?i)\bspeed[:\s]+(\d+)`)},
			},
		},
	}
}

// TemplatePattern matches known export fingerprints and applies their exact
// extraction rules. It is silently inapplicable when no signature matches and
// emits the highest confidence when one does.
type TemplatePattern struct {
	registry   *schema.Registry
	templates  []Template
	confidence float64
}

// NewTemplatePattern creates the template strategy. hint optionally names the
// originating export source; a matching template is probed first. The hint
// never affects correctness, only probe order.
func NewTemplatePattern(reg *schema.Registry, confidence float64, hint string) *TemplatePattern {
	templates := BuiltinTemplates()
	if hint != "" {
		ordered := make([]Template, 0, len(templates))
		for _, t := range templates {
			if strings.EqualFold(t.ID, hint) {
				ordered = append(ordered, t)
			}
		}
		for _, t := range templates {
			if !strings.EqualFold(t.ID, hint) {
				ordered = append(ordered, t)
			}
		}
		templates = ordered
	}
	return &TemplatePattern{registry: reg, templates: templates, confidence: confidence}
}

func (s *TemplatePattern) Name() string { return models.StrategyTemplate }

func (s *TemplatePattern) Cost() CostClass { return CostCheap }

// Applicable reports true when any template signature appears in the document.
func (s *TemplatePattern) Applicable(doc *document.SourceDocument) bool {
	return s.match(doc) != nil
}

func (s *TemplatePattern) match(doc *document.SourceDocument) *Template {
	for i := range s.templates {
		t := &s.templates[i]
		for _, page := range doc.Pages() {
			if containsFold(page.Text, t.Signature) {
				return t
			}
		}
	}
	return nil
}

func (s *TemplatePattern) Extract(ctx context.Context, doc *document.SourceDocument) ([]models.Candidate, error) {
	tmpl := s.match(doc)
	if tmpl == nil {
		return nil, nil
	}

	var out []models.Candidate
	for _, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if page.Text == "" {
			continue
		}
		for _, rule := range tmpl.Rules {
			m := rule.Pattern.FindStringSubmatch(page.Text)
			if len(m) < 2 {
				continue
			}
			raw := strings.TrimSpace(m[1])
			spec, ok := s.registry.Get(rule.FieldID)
			if !ok {
				continue
			}
			normalized, ok := normalizeTemplateValue(spec, raw)
			if !ok {
				continue
			}
			out = append(out, models.Candidate{
				FieldID:    rule.FieldID,
				RawText:    raw,
				Normalized: normalized,
				Strategy:   s.Name(),
				Confidence: s.confidence,
				Page:       page.Index,
			})
		}
	}
	return out, nil
}

// normalizeTemplateValue brings a rule capture into the field's normalized form.
func normalizeTemplateValue(spec *schema.FieldSpec, raw string) (string, bool) {
	switch spec.Type {
	case schema.TypeInteger:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", false
		}
		return strconv.Itoa(n), true
	case schema.TypeEnum:
		lowered := strings.ToLower(strings.Join(strings.Fields(raw), " "))
		for _, v := range spec.Vocabulary {
			if strings.EqualFold(v, lowered) {
				return v, true
			}
		}
		return "", false
	default:
		return strings.Join(strings.Fields(raw), " "), true
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
