package schema

import "testing"

func TestLoad(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if reg.Version() != 1 {
		t.Errorf("expected schema version 1, got %d", reg.Version())
	}
	if reg.Len() == 0 {
		t.Fatal("expected non-empty schema")
	}
	for _, want := range []string{"name", "class", "level", "strength", "armor_class"} {
		if _, ok := reg.Get(want); !ok {
			t.Errorf("expected schema to contain field %q", want)
		}
	}
}

func TestLoad_FieldRules(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	level, _ := reg.Get("level")
	if level.Type != TypeInteger || level.Min != 1 || level.Max != 20 {
		t.Errorf("level should be integer 1..20, got %+v", level)
	}
	class, _ := reg.Get("class")
	if class.Type != TypeEnum || len(class.Vocabulary) == 0 {
		t.Errorf("class should be an enum with a vocabulary, got %+v", class)
	}
	str, _ := reg.Get("strength")
	if str.Min != 1 || str.Max != 30 {
		t.Errorf("ability scores should be 1..30, got min=%d max=%d", str.Min, str.Max)
	}
}

func TestLoadFrom_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing fields key", `{"version": 1}`},
		{"bad field id", `{"version":1,"fields":[{"id":"Bad ID","type":"string","labels":["x"],"importance":1}]}`},
		{"unknown type", `{"version":1,"fields":[{"id":"x","type":"float","labels":["x"],"importance":1}]}`},
		{"importance out of range", `{"version":1,"fields":[{"id":"x","type":"string","labels":["x"],"importance":2}]}`},
		{"duplicate id", `{"version":1,"fields":[{"id":"x","type":"string","labels":["x"],"importance":1},{"id":"x","type":"string","labels":["y"],"importance":1}]}`},
		{"enum without vocabulary", `{"version":1,"fields":[{"id":"x","type":"enum","labels":["x"],"importance":1}]}`},
		{"inverted integer range", `{"version":1,"fields":[{"id":"x","type":"integer","labels":["x"],"min":10,"max":1,"importance":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadFrom([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFieldSpec_InVocabulary(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	class, _ := reg.Get("class")
	if !class.InVocabulary("Wizard") {
		t.Error("vocabulary match should ignore case")
	}
	if class.InVocabulary("accountant") {
		t.Error("unknown class should not match")
	}
	name, _ := reg.Get("name")
	if name.InVocabulary("anything") {
		t.Error("string fields have no vocabulary")
	}
}
