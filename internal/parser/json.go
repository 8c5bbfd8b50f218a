package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser reads a JSON array of classification objects. Structured
// fields may be embedded JSON strings, as in the CSV export, or inline
// JSON values.
type JSONParser struct{}

type jsonRow map[string]json.RawMessage

func (p *JSONParser) Parse(r io.Reader, filename string) ([]Classification, error) {
	var raw []jsonRow
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse json %s: %w", filename, err)
	}

	rows := make([]Classification, 0, len(raw))
	for i, obj := range raw {
		for _, col := range requiredColumns {
			if _, ok := obj[col]; !ok {
				return nil, fmt.Errorf("parse json %s: row %d: missing field %q", filename, i+1, col)
			}
		}
		c, err := newClassification(i+1,
			scalarField(obj[ColClassificationID]), scalarField(obj[ColWorkflowID]),
			scalarField(obj[ColWorkflowVersion]),
			embeddedField(obj[ColSubjectData]), embeddedField(obj[ColAnnotations]))
		if err != nil {
			return nil, fmt.Errorf("parse json %s: %w", filename, err)
		}
		rows = append(rows, c)
	}
	return rows, nil
}

// scalarField renders a string or number as text.
func scalarField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// embeddedField returns a JSON document: the contents of a JSON string, or
// the raw value itself.
func embeddedField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
