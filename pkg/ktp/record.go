package ktp

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Entry is a single field/value pair of a Record.
type Entry struct {
	Field Field
	Value string
}

// Record is the immutable result of an extraction. Fields that were not found
// are absent; a Record never holds empty values.
type Record struct {
	values map[Field]string
}

// Get returns the value of f and whether it was found.
func (r Record) Get(f Field) (string, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Has reports whether f was found.
func (r Record) Has(f Field) bool {
	_, ok := r.values[f]
	return ok
}

// Len returns the number of fields found.
func (r Record) Len() int { return len(r.values) }

// Fields returns the fields present in the record, in schema order.
func (r Record) Fields() []Field {
	fields := make([]Field, 0, len(r.values))
	for _, f := range Schema {
		if _, ok := r.values[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Entries returns the present fields with their values, in schema order.
func (r Record) Entries() []Entry {
	entries := make([]Entry, 0, len(r.values))
	for _, f := range Schema {
		if v, ok := r.values[f]; ok {
			entries = append(entries, Entry{Field: f, Value: v})
		}
	}
	return entries
}

// Map returns a copy of the record keyed by card label.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for f, v := range r.values {
		m[string(f)] = v
	}
	return m
}

// MarshalJSON encodes the record as a JSON object with keys in schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Field))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a YAML mapping with keys in schema order.
func (r Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range r.Entries() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(e.Field)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}
	return node, nil
}

// recordBuilder accumulates values from the two extraction paths. Values from
// label matches and from positional inference are kept apart until build, so
// precedence is decided in one place.
type recordBuilder struct {
	labelled   map[Field]string
	positional map[Field]string
}

func newRecordBuilder() *recordBuilder {
	return &recordBuilder{
		labelled:   make(map[Field]string),
		positional: make(map[Field]string),
	}
}

// label stores a label-matched value. The first non-empty value wins.
func (b *recordBuilder) label(f Field, value string) {
	setOnce(b.labelled, f, value)
}

// infer stores a positionally inferred value. The first non-empty value wins.
func (b *recordBuilder) infer(f Field, value string) {
	setOnce(b.positional, f, value)
}

func setOnce(m map[Field]string, f Field, value string) {
	if value == "" {
		return
	}
	if _, exists := m[f]; exists {
		return
	}
	m[f] = value
}

// build merges both layers. A positional value only fills a field that no
// label match has set.
func (b *recordBuilder) build() Record {
	values := make(map[Field]string, len(b.labelled)+len(b.positional))
	for f, v := range b.labelled {
		values[f] = v
	}
	for f, v := range b.positional {
		if _, labelled := b.labelled[f]; labelled {
			continue
		}
		values[f] = v
	}
	return Record{values: values}
}
