package locator

import (
	"strconv"
	"strings"

	"github.com/rollforge/sheetscan/internal/document"
	"github.com/rollforge/sheetscan/internal/schema"
)

// fuzzyMinLen is the minimum word length before edit-distance matching is
// allowed; short labels like "str" or "ac" must match exactly or every
// three-letter token becomes an anchor.
const fuzzyMinLen = 5

// maxEnumSpan is the longest vocabulary entry in tokens (e.g. "chaotic neutral").
const maxEnumSpan = 3

// Locator finds a field's value near a recognized label anchor in a token
// stream. It is stateless apart from its configuration and safe for
// concurrent use.
type Locator struct {
	registry *schema.Registry
	maxDist  int
	window   int
}

// New creates a Locator. maxDist bounds the edit distance tolerated on
// anchors and enum values (OCR noise); window bounds how many tokens after an
// anchor are considered.
func New(reg *schema.Registry, maxDist, window int) *Locator {
	return &Locator{registry: reg, maxDist: maxDist, window: window}
}

// Match is a located raw value and its normalized form.
type Match struct {
	Raw        string
	Normalized string
	// Anchor is the token index where the matched label starts.
	Anchor int
}

// Span marks a label anchor occurrence in a token stream.
type Span struct {
	Start int
	Len   int
}

// Locate scans tokens for the nearest occurrence of any of the field's label
// synonyms and extracts the value window that follows. Returns false when no
// anchor yields a parseable value.
func (l *Locator) Locate(tokens []document.Token, spec *schema.FieldSpec) (Match, bool) {
	for _, span := range l.AnchorSpans(tokens, spec) {
		raw, normalized, ok := l.parseWindow(tokens, span.Start+span.Len, spec)
		if ok {
			return Match{Raw: raw, Normalized: normalized, Anchor: span.Start}, true
		}
	}
	return Match{}, false
}

// AnchorSpans returns every occurrence of the field's label synonyms in
// stream order. Longer synonyms are preferred at the same position so
// "armor class" is not consumed as a stray "class" anchor.
func (l *Locator) AnchorSpans(tokens []document.Token, spec *schema.FieldSpec) []Span {
	var spans []Span
	for i := range tokens {
		if n := l.labelLenAt(tokens, i, spec); n > 0 {
			spans = append(spans, Span{Start: i, Len: n})
		}
	}
	return spans
}

// labelLenAt returns the longest label of spec matching at token i, in tokens.
func (l *Locator) labelLenAt(tokens []document.Token, i int, spec *schema.FieldSpec) int {
	best := 0
	for _, label := range spec.Labels {
		words := strings.Fields(label)
		if len(words) <= best || i+len(words) > len(tokens) {
			continue
		}
		if l.wordsMatchAt(tokens, i, words) {
			best = len(words)
		}
	}
	return best
}

// anchorLenAt returns the longest label of any schema field matching at token
// i. Used to stop string value windows at the next field's label.
func (l *Locator) anchorLenAt(tokens []document.Token, i int) int {
	best := 0
	for _, spec := range l.registry.Fields() {
		f := spec
		if n := l.labelLenAt(tokens, i, &f); n > best {
			best = n
		}
	}
	return best
}

func (l *Locator) wordsMatchAt(tokens []document.Token, i int, words []string) bool {
	for k, w := range words {
		if !l.wordMatches(normalizeToken(tokens[i+k].Text), w) {
			return false
		}
	}
	return true
}

func (l *Locator) wordMatches(got, want string) bool {
	// Label words like "&" normalize to empty; they only match tokens
	// that are themselves pure separators, never real words.
	want = normalizeToken(want)
	if want == "" {
		return got == ""
	}
	if got == want {
		return true
	}
	if len(want) >= fuzzyMinLen && l.maxDist > 0 {
		return levenshteinDistance(got, want) <= l.maxDist
	}
	return false
}

// parseWindow extracts a typed value from the tokens following an anchor.
func (l *Locator) parseWindow(tokens []document.Token, start int, spec *schema.FieldSpec) (string, string, bool) {
	end := start + l.window
	if end > len(tokens) {
		end = len(tokens)
	}
	if start >= end {
		return "", "", false
	}
	return l.ParseValue(spec, tokens[start:end])
}

// ParseValue applies per-field-type parsing to a bounded run of value tokens.
// Integer fields stop at the first non-numeric token; enum fields fuzzy-match
// spans against the vocabulary; string fields run until the next recognized
// anchor or the window end.
func (l *Locator) ParseValue(spec *schema.FieldSpec, tokens []document.Token) (raw, normalized string, ok bool) {
	switch spec.Type {
	case schema.TypeInteger:
		return l.parseInteger(tokens)
	case schema.TypeEnum:
		return l.parseEnum(spec, tokens)
	default:
		return l.parseString(tokens)
	}
}

func (l *Locator) parseInteger(tokens []document.Token) (string, string, bool) {
	for _, t := range tokens {
		if isSeparator(t.Text) {
			continue
		}
		d := digitsOf(t.Text)
		if d == "" {
			// First non-numeric token ends the window.
			return "", "", false
		}
		n, err := strconv.Atoi(d)
		if err != nil {
			return "", "", false
		}
		return t.Text, strconv.Itoa(n), true
	}
	return "", "", false
}

func (l *Locator) parseEnum(spec *schema.FieldSpec, tokens []document.Token) (string, string, bool) {
	bestDist := l.maxDist + 1
	var bestRaw, bestValue string
	for i := range tokens {
		if isSeparator(tokens[i].Text) {
			continue
		}
		for span := maxEnumSpan; span >= 1; span-- {
			if i+span > len(tokens) {
				continue
			}
			joined := joinNormalized(tokens[i : i+span])
			for _, v := range spec.Vocabulary {
				dist := enumDistance(joined, strings.ToLower(v))
				if dist == 0 {
					return rawOf(tokens[i : i+span]), v, true
				}
				if dist < bestDist {
					bestDist = dist
					bestRaw = rawOf(tokens[i : i+span])
					bestValue = v
				}
			}
		}
	}
	if bestValue != "" {
		return bestRaw, bestValue, true
	}
	return "", "", false
}

// enumDistance compares a candidate span against a vocabulary entry, gating
// fuzzy matches behind the minimum length rule.
func enumDistance(got, want string) int {
	if got == want {
		return 0
	}
	if len(want) < fuzzyMinLen {
		return len(want) + 1
	}
	return levenshteinDistance(got, want)
}

func (l *Locator) parseString(tokens []document.Token) (string, string, bool) {
	var words []string
	for i := range tokens {
		if l.anchorLenAt(tokens, i) > 0 {
			// Next field's label; the value ends here.
			break
		}
		if isSeparator(tokens[i].Text) {
			if len(words) > 0 {
				break
			}
			continue
		}
		words = append(words, tokens[i].Text)
	}
	if len(words) == 0 {
		return "", "", false
	}
	raw := strings.Join(words, " ")
	return raw, raw, true
}

func joinNormalized(tokens []document.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := normalizeToken(t.Text); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

func rawOf(tokens []document.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
