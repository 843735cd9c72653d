package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TypeKind is the simplified classification used for prompt hints and
// type-specific validation.
type TypeKind int

const (
	TypeOther TypeKind = iota
	TypeDate
	TypeString
)

// Classify maps a raw data-type tag (e.g. "datetime64[ns]", "string", "int64")
// to its simplified kind. "object" is the ingestion collaborator's generic
// string-ish tag.
func Classify(dataType string) TypeKind {
	s := strings.ToLower(dataType)
	if strings.Contains(s, "date") || strings.Contains(s, "time") {
		return TypeDate
	}
	if strings.Contains(s, "string") || strings.Contains(s, "object") {
		return TypeString
	}
	return TypeOther
}

// FieldSpec is the behavior-relevant metadata for one schema attribute.
type FieldSpec struct {
	DataType      string
	Mandatory     bool
	PrimaryKey    bool
	BusinessRules string
}

// Field is one (schema, field) pair together with its spec.
type Field struct {
	Schema string
	Name   string
	Spec   FieldSpec
}

// Key returns the "schema.field" composite key identifying this field in the
// generation result.
func (f Field) Key() string {
	return f.Schema + "." + f.Name
}

// RuleSet is the validated, typed representation of the input schema rules.
// Field order equals document order from ingestion; the set is immutable once
// loaded.
type RuleSet struct {
	fields []Field
}

// Fields returns all fields in document order.
func (rs *RuleSet) Fields() []Field {
	return rs.fields
}

// Len returns the total number of fields across all schemas.
func (rs *RuleSet) Len() int {
	return len(rs.fields)
}

type fieldSpecDoc struct {
	DataType      string `json:"data_type"`
	Mandatory     bool   `json:"mandatory_field"`
	PrimaryKey    bool   `json:"primary_key"`
	BusinessRules string `json:"business_rules"`
}

// Load decodes a rules document of the shape
//
//	{ "<schema>": { "fields": { "<field>": { "data_type": ..., ... } } } }
//
// using a token-level decoder so that schema and field iteration order matches
// the document. Schema names must not contain "." (the composite-key
// delimiter), and every field must carry a non-empty data_type.
func Load(b []byte) (*RuleSet, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if err := expectDelim(dec, '{', "rules document must be a JSON object"); err != nil {
		return nil, err
	}

	rs := &RuleSet{}
	for dec.More() {
		schemaName, err := nextKey(dec)
		if err != nil {
			return nil, fmt.Errorf("read schema name: %w", err)
		}
		if strings.Contains(schemaName, ".") {
			return nil, fmt.Errorf("schema name %q must not contain %q", schemaName, ".")
		}
		if err := loadSchema(dec, schemaName, rs); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}', "rules document not terminated"); err != nil {
		return nil, err
	}
	// A document with zero fields is valid; the run then produces an empty
	// result artifact.
	return rs, nil
}

func loadSchema(dec *json.Decoder, schemaName string, rs *RuleSet) error {
	if err := expectDelim(dec, '{', fmt.Sprintf("schema %q: value must be an object", schemaName)); err != nil {
		return err
	}

	sawFields := false
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return fmt.Errorf("schema %q: %w", schemaName, err)
		}
		if key != "fields" {
			// Ingestion may attach extra metadata per schema; it is not
			// behavior-relevant here.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("schema %q: skip %q: %w", schemaName, key, err)
			}
			continue
		}
		sawFields = true
		if err := loadFields(dec, schemaName, rs); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}', fmt.Sprintf("schema %q: object not terminated", schemaName)); err != nil {
		return err
	}
	if !sawFields {
		return fmt.Errorf("schema %q: missing required %q object", schemaName, "fields")
	}
	return nil
}

func loadFields(dec *json.Decoder, schemaName string, rs *RuleSet) error {
	if err := expectDelim(dec, '{', fmt.Sprintf("schema %q: %q must be an object", schemaName, "fields")); err != nil {
		return err
	}
	for dec.More() {
		fieldName, err := nextKey(dec)
		if err != nil {
			return fmt.Errorf("schema %q: %w", schemaName, err)
		}
		var doc fieldSpecDoc
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("schema %q field %q: %w", schemaName, fieldName, err)
		}
		if strings.TrimSpace(doc.DataType) == "" {
			return fmt.Errorf("schema %q field %q: data_type is required", schemaName, fieldName)
		}
		rs.fields = append(rs.fields, Field{
			Schema: schemaName,
			Name:   fieldName,
			Spec: FieldSpec{
				DataType:      doc.DataType,
				Mandatory:     doc.Mandatory,
				PrimaryKey:    doc.PrimaryKey,
				BusinessRules: doc.BusinessRules,
			},
		})
	}
	return expectDelim(dec, '}', fmt.Sprintf("schema %q: %q object not terminated", schemaName, "fields"))
}

func expectDelim(dec *json.Decoder, want rune, msg string) error {
	t, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	d, ok := t.(json.Delim)
	if !ok || rune(d) != want {
		return fmt.Errorf("%s (got %v)", msg, t)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	t, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := t.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", t)
	}
	return s, nil
}
