// Package extract pulls scalar values out of raw annotation nodes after
// checking each node's task against the workflow vocabulary.
package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Extractor resolves node values for one workflow version.
type Extractor struct {
	wf *vocab.Workflow
}

func New(wf *vocab.Workflow) *Extractor {
	return &Extractor{wf: wf}
}

// Workflow returns the vocabulary the extractor validates against.
func (e *Extractor) Workflow() *vocab.Workflow {
	return e.wf
}

// Check returns the node's role, failing with a schema violation when the
// role is not one of expected.
func (e *Extractor) Check(node annotation.Node, expected ...vocab.Role) (vocab.Role, error) {
	role := e.wf.Role(node.Task)
	for _, r := range expected {
		if r == role {
			return role, nil
		}
	}
	return role, annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
		"role %s, expected %s", role, rolesString(expected))
}

// Value returns the trimmed text of a text node, or the label of a
// single-selection node. An unanswered node yields "", except for dropdown
// roles, which must carry exactly one selection.
func (e *Extractor) Value(node annotation.Node, expected ...vocab.Role) (string, error) {
	role, err := e.Check(node, expected...)
	if err != nil {
		return "", err
	}
	if role.IsDropdown() {
		sel, err := single(node)
		if err != nil {
			return "", err
		}
		return Clean(sel.Label), nil
	}
	return scalar(node)
}

// DropdownOrText resolves the dropdown-with-other pattern: the dropdown's
// label when its selection is a listed option, otherwise the paired
// free-text value. A missing option flag counts as false.
func (e *Extractor) DropdownOrText(dropRole vocab.Role, drop annotation.Node, textRole vocab.Role, text annotation.Node) (string, error) {
	if _, err := e.Check(drop, dropRole); err != nil {
		return "", err
	}
	if _, err := e.Check(text, textRole); err != nil {
		return "", err
	}
	sel, err := single(drop)
	if err != nil {
		return "", err
	}
	if sel.Option {
		return Clean(sel.Label), nil
	}
	return scalar(text)
}

// Values applies Value to each node, preserving order.
func (e *Extractor) Values(nodes []annotation.Node, expected ...vocab.Role) ([]string, error) {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		v, err := e.Value(n, expected...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Checklist returns every selected label of a multiple-choice node, in
// order, skipping blanks.
func (e *Extractor) Checklist(node annotation.Node, expected ...vocab.Role) ([]string, error) {
	if _, err := e.Check(node, expected...); err != nil {
		return nil, err
	}
	var labels []string
	switch node.Value.Kind {
	case annotation.KindEmpty:
	case annotation.KindText:
		if v := Clean(node.Value.Text); v != "" {
			labels = append(labels, v)
		}
	case annotation.KindSelection:
		for _, sel := range node.Value.Selections {
			if v := Clean(sel.Label); v != "" {
				labels = append(labels, v)
			}
		}
	default:
		return nil, wrongKind(node, "a checklist")
	}
	return labels, nil
}

// SubNodes returns the sub-annotations of a combo node.
func (e *Extractor) SubNodes(node annotation.Node, expected ...vocab.Role) ([]annotation.Node, error) {
	if _, err := e.Check(node, expected...); err != nil {
		return nil, err
	}
	switch node.Value.Kind {
	case annotation.KindEmpty:
		return nil, nil
	case annotation.KindNodes:
		return node.Value.Nodes, nil
	}
	return nil, wrongKind(node, "sub-annotations")
}

// Strokes returns the drawn marks of a drawing node.
func (e *Extractor) Strokes(node annotation.Node, expected ...vocab.Role) ([]annotation.Stroke, error) {
	if _, err := e.Check(node, expected...); err != nil {
		return nil, err
	}
	switch node.Value.Kind {
	case annotation.KindEmpty:
		return nil, nil
	case annotation.KindStrokes:
		return node.Value.Strokes, nil
	}
	return nil, wrongKind(node, "strokes")
}

// Clean NFC-normalizes and trims volunteer text.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func scalar(node annotation.Node) (string, error) {
	switch node.Value.Kind {
	case annotation.KindEmpty:
		return "", nil
	case annotation.KindText:
		return Clean(node.Value.Text), nil
	case annotation.KindSelection:
		sel, err := single(node)
		if err != nil {
			return "", err
		}
		return Clean(sel.Label), nil
	}
	return "", wrongKind(node, "text or a single selection")
}

// single enforces the dropdown invariant: exactly one selection.
func single(node annotation.Node) (annotation.Selection, error) {
	if node.Value.Kind != annotation.KindSelection && node.Value.Kind != annotation.KindEmpty {
		return annotation.Selection{}, wrongKind(node, "a dropdown selection")
	}
	if n := len(node.Value.Selections); n != 1 {
		return annotation.Selection{}, annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
			"dropdown has %d selections, expected 1", n)
	}
	return node.Value.Selections[0], nil
}

func wrongKind(node annotation.Node, want string) error {
	return annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
		"value is %s, expected %s", node.Value.Kind, want)
}

func rolesString(roles []vocab.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}
