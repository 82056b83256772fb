// Package schema defines the fixed, versioned field schema for character records.
//
// The schema is the single source of truth for what a character record
// contains. It ships embedded in the binary (fields.json) and is checked
// against a JSON Schema (fields.schema.json) at load time, so a malformed
// schema file fails fast instead of producing silently wrong records.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed fields.json
var fieldsJSON []byte

//go:embed fields.schema.json
var fieldsSchemaJSON string

// FieldType is the semantic type of a schema field.
type FieldType string

const (
	// TypeString accepts free-form text values.
	TypeString FieldType = "string"
	// TypeInteger accepts whole numbers within a declared range.
	TypeInteger FieldType = "integer"
	// TypeEnum accepts values from a closed vocabulary.
	TypeEnum FieldType = "enum"
)

// FieldSpec is one static schema entry.
type FieldSpec struct {
	ID         string    `json:"id"`
	Type       FieldType `json:"type"`
	Labels     []string  `json:"labels"`
	Min        int       `json:"min,omitempty"`
	Max        int       `json:"max,omitempty"`
	Vocabulary []string  `json:"vocabulary,omitempty"`
	Importance float64   `json:"importance"`
}

// InVocabulary reports whether value matches a vocabulary entry, ignoring case.
// Always false for non-enum fields.
func (f *FieldSpec) InVocabulary(value string) bool {
	for _, v := range f.Vocabulary {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// registryFile is the on-disk shape of fields.json.
type registryFile struct {
	Version int         `json:"version"`
	Fields  []FieldSpec `json:"fields"`
}

// Registry holds the loaded field schema in declaration order.
type Registry struct {
	version int
	fields  []FieldSpec
	byID    map[string]*FieldSpec
}

// Load parses and validates the embedded field schema.
func Load() (*Registry, error) {
	return loadFrom(fieldsJSON)
}

func loadFrom(data []byte) (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.schema.json", strings.NewReader(fieldsSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("fields.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile field schema: %w", err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse fields.json: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate fields.json: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode fields.json: %w", err)
	}

	reg := &Registry{
		version: file.Version,
		fields:  file.Fields,
		byID:    make(map[string]*FieldSpec, len(file.Fields)),
	}
	for i := range reg.fields {
		f := &reg.fields[i]
		if _, dup := reg.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate field id %q", f.ID)
		}
		if f.Type == TypeEnum && len(f.Vocabulary) == 0 {
			return nil, fmt.Errorf("enum field %q has empty vocabulary", f.ID)
		}
		if f.Type == TypeInteger && f.Min > f.Max {
			return nil, fmt.Errorf("integer field %q has min %d > max %d", f.ID, f.Min, f.Max)
		}
		reg.byID[f.ID] = f
	}
	return reg, nil
}

// Version returns the schema version number.
func (r *Registry) Version() int { return r.version }

// Fields returns all field specs in declaration order.
func (r *Registry) Fields() []FieldSpec { return r.fields }

// Len returns the number of fields in the schema.
func (r *Registry) Len() int { return len(r.fields) }

// Get returns the spec for a field id.
func (r *Registry) Get(id string) (*FieldSpec, bool) {
	f, ok := r.byID[id]
	return f, ok
}
