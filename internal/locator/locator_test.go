package locator

import (
	"testing"

	"github.com/rollforge/sheetscan/internal/schema"
)

func newTestLocator(t *testing.T) (*Locator, *schema.Registry) {
	t.Helper()
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("schema.Load() error: %v", err)
	}
	return New(reg, 1, 6), reg
}

func locate(t *testing.T, l *Locator, reg *schema.Registry, text, fieldID string) (Match, bool) {
	t.Helper()
	spec, ok := reg.Get(fieldID)
	if !ok {
		t.Fatalf("unknown field %q", fieldID)
	}
	return l.Locate(Tokenize(text), spec)
}

func TestLocate_Integer(t *testing.T) {
	l, reg := newTestLocator(t)

	tests := []struct {
		name    string
		text    string
		field   string
		want    string
		wantOK  bool
	}{
		{"plain label", "Level: 7", "level", "7", true},
		{"abbreviated label", "STR 18 DEX 14", "strength", "18", true},
		{"glued punctuation", "Armor Class: 17, shield equipped", "armor_class", "17", true},
		{"dash separator", "Hit Points - 42", "hit_points", "42", true},
		{"stops at non-numeric", "Level: unknown 7", "level", "", false},
		{"no anchor", "nothing relevant here", "level", "", false},
		{"out of range still located", "Strength 99", "strength", "99", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := locate(t, l, reg, tt.text, tt.field)
			if ok != tt.wantOK {
				t.Fatalf("Locate() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && m.Normalized != tt.want {
				t.Errorf("Locate() = %q, want %q", m.Normalized, tt.want)
			}
		})
	}
}

func TestLocate_Enum(t *testing.T) {
	l, reg := newTestLocator(t)

	tests := []struct {
		name  string
		text  string
		field string
		want  string
	}{
		{"exact class", "Class: Wizard Level: 9", "class", "wizard"},
		{"class before abbreviated stat", "Class: Warlock Level: 5 STR 12", "class", "warlock"},
		{"case insensitive", "CLASS WARLOCK", "class", "warlock"},
		{"ocr noise tolerated", "Class: Wizsrd", "class", "wizard"},
		{"two word alignment", "Alignment: Chaotic Good", "alignment", "chaotic good"},
		{"shared class and level label", "Class & Level: Paladin 3", "class", "paladin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := locate(t, l, reg, tt.text, tt.field)
			if !ok {
				t.Fatal("expected a match")
			}
			if m.Normalized != tt.want {
				t.Errorf("Locate() = %q, want %q", m.Normalized, tt.want)
			}
		})
	}

	t.Run("unknown value fails", func(t *testing.T) {
		if _, ok := locate(t, l, reg, "Class: Accountant", "class"); ok {
			t.Error("vocabulary miss should not match")
		}
	})
}

func TestLocate_String(t *testing.T) {
	l, reg := newTestLocator(t)

	t.Run("value runs to next anchor", func(t *testing.T) {
		m, ok := locate(t, l, reg, "Character Name: Aria Shadowbane Race: Tiefling", "name")
		if !ok {
			t.Fatal("expected a match")
		}
		if m.Normalized != "Aria Shadowbane" {
			t.Errorf("expected value to stop at next label, got %q", m.Normalized)
		}
	})

	t.Run("race after name", func(t *testing.T) {
		m, ok := locate(t, l, reg, "Name: Durnik Race: Dwarf Class: Fighter", "race")
		if !ok {
			t.Fatal("expected a match")
		}
		if m.Normalized != "Dwarf" {
			t.Errorf("expected Dwarf, got %q", m.Normalized)
		}
	})

	t.Run("window bounds the value", func(t *testing.T) {
		m, ok := locate(t, l, reg, "Name: one two three four five six seven eight nine", "name")
		if !ok {
			t.Fatal("expected a match")
		}
		if len(Tokenize(m.Normalized)) > 6 {
			t.Errorf("value exceeded window: %q", m.Normalized)
		}
	})
}

func TestLocate_AnchorFuzzyTolerance(t *testing.T) {
	l, reg := newTestLocator(t)

	// One OCR edit in a long label still anchors.
	if _, ok := locate(t, l, reg, "Strenqth 14", "strength"); !ok {
		t.Error("single-edit anchor noise should be tolerated")
	}
	// Short labels must match exactly.
	if _, ok := locate(t, l, reg, "sir 14", "strength"); ok {
		t.Error("short labels must not fuzzy-match")
	}
}

func TestAnchorSpans_PrefersLongerLabel(t *testing.T) {
	l, reg := newTestLocator(t)
	spec, _ := reg.Get("armor_class")
	spans := l.AnchorSpans(Tokenize("Armor Class 17"), spec)
	if len(spans) == 0 {
		t.Fatal("expected an anchor span")
	}
	if spans[0].Len != 2 {
		t.Errorf("expected two-token anchor, got len %d", spans[0].Len)
	}
}

func TestAnchorSpans_CompoundLabelNeverSwallowsValue(t *testing.T) {
	l, reg := newTestLocator(t)
	spec, _ := reg.Get("class")

	// The "class & level" label must not anchor across "Class: Wizard
	// Level:"; the "&" word only matches separator tokens.
	spans := l.AnchorSpans(Tokenize("Class: Wizard Level: 9"), spec)
	if len(spans) == 0 {
		t.Fatal("expected an anchor span")
	}
	if spans[0].Len != 1 {
		t.Errorf("anchor consumed the value, got span len %d", spans[0].Len)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"wizard", "wizsrd", 1},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
