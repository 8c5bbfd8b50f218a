package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node is one task answer inside a classification's annotation list.
type Node struct {
	Task  string `json:"task"`
	Value Value  `json:"value"`
}

// ValueKind identifies which shape a Value holds.
type ValueKind int

const (
	KindEmpty     ValueKind = iota // null or []
	KindText                       // free text, or a single-question answer
	KindSelection                  // dropdown or checklist selections
	KindNodes                      // combo: nested sub-annotations
	KindStrokes                    // drawing marks
)

func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindSelection:
		return "selection"
	case KindNodes:
		return "nodes"
	case KindStrokes:
		return "strokes"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Selection is one chosen entry of a dropdown or checklist. Option is false
// when the volunteer typed a value instead of picking a listed one; a missing
// "option" key decodes as false.
type Selection struct {
	Label  string `json:"label"`
	Option bool   `json:"option"`
}

// Stroke is a line mark drawn with the tool at index Tool.
type Stroke struct {
	Tool int     `json:"tool"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Value is the polymorphic payload of a Node. Only the field matching Kind
// is populated.
type Value struct {
	Kind       ValueKind
	Text       string
	Selections []Selection
	Nodes      []Node
	Strokes    []Stroke
}

// TextValue builds a text Value.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// SelectionValue builds a selection Value.
func SelectionValue(sel ...Selection) Value {
	return Value{Kind: KindSelection, Selections: sel}
}

// NodesValue builds a combo Value.
func NodesValue(nodes ...Node) Value {
	return Value{Kind: KindNodes, Nodes: nodes}
}

// StrokesValue builds a drawing Value.
func StrokesValue(strokes ...Stroke) Value {
	return Value{Kind: KindStrokes, Strokes: strokes}
}

// String renders the value compactly for error messages and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindSelection:
		labels := make([]string, len(v.Selections))
		for i, s := range v.Selections {
			labels[i] = s.Label
		}
		return "[" + strings.Join(labels, "|") + "]"
	case KindNodes:
		return fmt.Sprintf("<%d sub-annotations>", len(v.Nodes))
	case KindStrokes:
		return fmt.Sprintf("<%d strokes>", len(v.Strokes))
	}
	return ""
}

// UnmarshalJSON decodes the shapes the classification export produces:
// a string, a list of selections (objects or bare labels), a list of
// sub-annotations, or a list of line marks.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		v.Kind = KindText
		return json.Unmarshal(data, &v.Text)
	case '[':
		return v.unmarshalList(data)
	case '{':
		return fmt.Errorf("%w: value is an object, expected string or list", ErrSchemaViolation)
	default:
		// Numbers and booleans from single-answer questions keep their literal.
		v.Kind = KindText
		v.Text = string(data)
		return nil
	}
}

func (v *Value) unmarshalList(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	kind, err := listKind(items[0])
	if err != nil {
		return err
	}
	for i, item := range items[1:] {
		k, err := listKind(item)
		if err != nil {
			return err
		}
		if k != kind {
			return fmt.Errorf("%w: list mixes %s and %s elements at index %d", ErrSchemaViolation, kind, k, i+1)
		}
	}

	v.Kind = kind
	switch kind {
	case KindNodes:
		return json.Unmarshal(data, &v.Nodes)
	case KindStrokes:
		return json.Unmarshal(data, &v.Strokes)
	}

	v.Selections = make([]Selection, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if item[0] == '"' {
			var label string
			if err := json.Unmarshal(item, &label); err != nil {
				return err
			}
			v.Selections = append(v.Selections, Selection{Label: label, Option: true})
			continue
		}
		var sel Selection
		if err := json.Unmarshal(item, &sel); err != nil {
			return err
		}
		v.Selections = append(v.Selections, sel)
	}
	return nil
}

func listKind(item json.RawMessage) (ValueKind, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return KindEmpty, fmt.Errorf("%w: empty list element", ErrSchemaViolation)
	}
	switch item[0] {
	case '"':
		return KindSelection, nil
	case '{':
	default:
		return KindEmpty, fmt.Errorf("%w: unexpected list element %s", ErrSchemaViolation, string(item))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(item, &keys); err != nil {
		return KindEmpty, err
	}
	if _, ok := keys["task"]; ok {
		return KindNodes, nil
	}
	if _, ok := keys["x1"]; ok {
		return KindStrokes, nil
	}
	return KindSelection, nil
}
