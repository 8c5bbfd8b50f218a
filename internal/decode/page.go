package decode

import (
	"log/slog"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/extract"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// pageDecoder carries what every page decoder needs for one page.
type pageDecoder struct {
	wf   *vocab.Workflow
	ex   *extract.Extractor
	acc  *Accumulator
	page int
	log  *slog.Logger
}

// unexpected reports a node whose role the current decoder cannot handle.
// A task missing from the vocabulary is unrecognized; a known task in the
// wrong place is a schema violation.
func (d *pageDecoder) unexpected(node annotation.Node, where string) error {
	role := d.wf.Role(node.Task)
	if role == vocab.RoleUnknown {
		return annotation.Errorf(annotation.ErrUnrecognizedTask, node.Task, node.Value.String(),
			"task not in vocabulary of %s %s", d.wf.Name, d.wf.Key)
	}
	return annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
		"role %s not expected on %s", role, where)
}

func (d *pageDecoder) comment(node annotation.Node) error {
	text, err := d.ex.Value(node, vocab.RoleComment)
	if err != nil {
		return err
	}
	if text != "" {
		d.acc.Comments = append(d.acc.Comments, Comment{Page: d.page, Text: text})
	}
	return nil
}

// blank accepts only comments on a page marked blank.
func (d *pageDecoder) blank(cur *annotation.Cursor) error {
	for node, ok := cur.Next(); ok; node, ok = cur.Next() {
		switch d.wf.Role(node.Task) {
		case vocab.RoleComment:
			if err := d.comment(node); err != nil {
				return err
			}
		case vocab.RoleSkip:
		default:
			return d.unexpected(node, "a blank page")
		}
	}
	return nil
}

// fields indexes combo entry nodes, or loose nodes, by role.
type fields map[vocab.Role]annotation.Node

func (d *pageDecoder) entryFields(entry []annotation.Node) fields {
	f := make(fields, len(entry))
	for _, n := range entry {
		f[d.wf.Role(n.Task)] = n
	}
	return f
}

// value extracts the field with role r, or "" when absent.
func (d *pageDecoder) value(f fields, r vocab.Role) (string, error) {
	n, ok := f[r]
	if !ok {
		return "", nil
	}
	return d.ex.Value(n, r)
}

// dropdownOrText resolves a dropdown-with-other pair where either half may
// be missing.
func (d *pageDecoder) dropdownOrText(f fields, dropRole, textRole vocab.Role) (string, error) {
	drop, hasDrop := f[dropRole]
	text, hasText := f[textRole]
	switch {
	case hasDrop && hasText:
		return d.ex.DropdownOrText(dropRole, drop, textRole, text)
	case hasDrop:
		label, err := d.ex.Value(drop, dropRole)
		if err != nil {
			return "", err
		}
		if !drop.Value.Selections[0].Option {
			return "", nil
		}
		return label, nil
	case hasText:
		return d.ex.Value(text, textRole)
	}
	return "", nil
}
