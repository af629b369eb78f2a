package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one exported row. values are strings, json.Number or,
// for records decoded verbatim from an API, whatever the source sent.
type Record map[string]any

// String renders a field for flat output formats, missing fields are "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// Lookup resolves a dotted path ("merchant.name") through nested objects.
func (r Record) Lookup(path string) (any, bool) {
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// LookupString is Lookup rendered the same way String renders a field.
func (r Record) LookupString(path string) string {
	v, ok := r.Lookup(path)
	if !ok {
		return ""
	}
	return Record{"v": v}.String("v")
}

// Key is a canonical encoding of the record, two records are equal
// when their keys are.
func (r Record) Key() string {
	encoded, err := json.Marshal(map[string]any(r))
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(encoded)
}

func Equal(a, b Record) bool {
	return a.Key() == b.Key()
}

// Decode turns a list of raw JSON objects into records, numbers keep
// their literal form.
func Decode(raw []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		decoder := json.NewDecoder(bytes.NewReader(item))
		decoder.UseNumber()
		var rec Record
		err := decoder.Decode(&rec)
		if err != nil {
			return records, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Schema is the ordered column list of a flat export.
type Schema struct {
	Fields []string
	// FreeText fields are always quoted in CSV output.
	FreeText []string
}

func (s Schema) IsZero() bool {
	return len(s.Fields) == 0
}

func (s Schema) IsFreeText(field string) bool {
	for _, f := range s.FreeText {
		if f == field {
			return true
		}
	}
	return false
}

// Row renders the record in schema order.
func (s Schema) Row(r Record) []string {
	row := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		row[i] = r.String(f)
	}
	return row
}

// InferSchema is the sorted union of all top level keys, used for
// records that have no fixed column list.
func InferSchema(records []Record) Schema {
	seen := map[string]bool{}
	var fields []string
	for _, r := range records {
		for k := range r {
			if seen[k] {
				continue
			}
			seen[k] = true
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return Schema{Fields: fields, FreeText: fields}
}
