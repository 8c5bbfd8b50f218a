package decode

import (
	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/combo"
	"github.com/dgallion1/sbaggregate/internal/pageref"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// otherState is the heading state of an index "other page".
type otherState struct {
	heading string
	// flushed is set once the current heading appears on some row.
	flushed bool
}

// other decodes headings, subjects with their page references, and
// comments until the cursor is exhausted.
func (d *pageDecoder) other(cur *annotation.Cursor) error {
	st := otherState{flushed: true}
	var err error
	for node, ok := cur.Next(); ok; node, ok = cur.Next() {
		if st, err = d.otherStep(st, cur, node); err != nil {
			return err
		}
	}
	d.flushHeading(st)
	return nil
}

func (d *pageDecoder) otherStep(st otherState, cur *annotation.Cursor, node annotation.Node) (otherState, error) {
	switch d.wf.Role(node.Task) {
	case vocab.RoleHeading:
		heading, err := d.ex.Value(node, vocab.RoleHeading)
		if err != nil {
			return st, err
		}
		d.flushHeading(st)
		return otherState{heading: heading, flushed: heading == ""}, nil

	case vocab.RoleSubject:
		subject, err := d.ex.Value(node, vocab.RoleSubject)
		if err != nil {
			return st, err
		}
		refs, err := d.pages(cur, node)
		if err != nil {
			return st, err
		}
		if subject == "" && len(refs) == 0 {
			return st, nil
		}
		for _, ref := range expand(refs) {
			d.acc.addIndex(IndexEntry{
				Page:         d.page,
				Heading:      st.heading,
				Subject:      subject,
				PageRef:      ref.Page,
				MarginalNote: ref.Note,
			})
		}
		st.flushed = true
		return st, nil

	case vocab.RoleComment:
		text, err := d.ex.Value(node, vocab.RoleComment)
		if err != nil || text == "" {
			return st, err
		}
		d.flushHeading(st)
		d.acc.addIndex(IndexEntry{Page: d.page, Heading: st.heading, Comment: text})
		st.flushed = true
		return st, nil

	case vocab.RoleSkip:
		return st, nil
	}
	return st, d.unexpected(node, "an index other page")
}

// flushHeading emits a placeholder row for a heading with no rows yet.
func (d *pageDecoder) flushHeading(st otherState) {
	if !st.flushed {
		d.acc.addIndex(IndexEntry{Page: d.page, Heading: st.heading})
	}
}

// pages consumes the pages task that must follow subject and parses it.
func (d *pageDecoder) pages(cur *annotation.Cursor, subject annotation.Node) ([]pageref.Ref, error) {
	next, ok := cur.Next()
	if !ok || d.wf.Role(next.Task) != vocab.RolePages {
		return nil, annotation.Errorf(annotation.ErrSchemaViolation, subject.Task, subject.Value.String(),
			"subject is not followed by a pages task")
	}
	return d.pageRefs(next)
}

func (d *pageDecoder) pageRefs(node annotation.Node) ([]pageref.Ref, error) {
	text, err := d.ex.Value(node, vocab.RolePages)
	if err != nil {
		return nil, err
	}
	refs, err := pageref.Parse(text)
	if err != nil {
		return nil, annotation.WithTask(err, node.Task)
	}
	return refs, nil
}

// expand turns an empty reference list into one blank reference, so an
// entry without pages still gets a row.
func expand(refs []pageref.Ref) []pageref.Ref {
	if len(refs) == 0 {
		return []pageref.Ref{{}}
	}
	return refs
}

// nameParts is a name entry before page references are expanded.
type nameParts struct {
	title, forename, surname, position, subject string
}

func (n nameParts) empty() bool {
	return n == nameParts{}
}

// names decodes a name-list panel. A heading ends the panel: the heading is
// pushed back and the rest of the page is decoded as an other page.
func (d *pageDecoder) names(cur *annotation.Cursor) error {
	open := fields{}
	flush := func(refs []pageref.Ref) error {
		if len(open) == 0 {
			return nil
		}
		err := d.emitName(open, refs)
		open = fields{}
		return err
	}

	for node, ok := cur.Next(); ok; node, ok = cur.Next() {
		role := d.wf.Role(node.Task)
		switch role {
		case vocab.RoleTitleDropdown, vocab.RoleTitleText, vocab.RoleForename, vocab.RoleSurname,
			vocab.RolePositionDropdown, vocab.RolePositionText, vocab.RoleSubject:
			if _, dup := open[role]; dup {
				if err := flush(nil); err != nil {
					return err
				}
			}
			open[role] = node

		case vocab.RolePages:
			refs, err := d.pageRefs(node)
			if err != nil {
				return err
			}
			if len(open) == 0 {
				// Pages with nothing to attach them to still need a row.
				open[role] = node
			}
			if err := flush(refs); err != nil {
				return err
			}

		case vocab.RoleNameCombo:
			if err := flush(nil); err != nil {
				return err
			}
			if err := d.nameCombo(node); err != nil {
				return err
			}

		case vocab.RoleComment:
			if err := flush(nil); err != nil {
				return err
			}
			text, err := d.ex.Value(node, vocab.RoleComment)
			if err != nil {
				return err
			}
			if text != "" {
				d.acc.addName(NameEntry{Page: d.page, Comment: text})
			}

		case vocab.RoleHeading:
			if err := flush(nil); err != nil {
				return err
			}
			cur.PushBack()
			return d.other(cur)

		case vocab.RoleSkip:

		default:
			return d.unexpected(node, "an index name list")
		}
	}
	return flush(nil)
}

func (d *pageDecoder) nameCombo(node annotation.Node) error {
	subs, err := d.ex.SubNodes(node, vocab.RoleNameCombo)
	if err != nil {
		return err
	}
	entries, err := combo.Decode(d.wf, subs, d.wf.NameFields, d.log)
	if err != nil {
		return annotation.WithTask(err, node.Task)
	}
	for _, entry := range entries {
		f := d.entryFields(entry)
		var refs []pageref.Ref
		if pages, ok := f[vocab.RolePages]; ok {
			if refs, err = d.pageRefs(pages); err != nil {
				return err
			}
		}
		if err := d.emitName(f, refs); err != nil {
			return err
		}
	}
	return nil
}

// emitName writes one row per page reference of a name entry. An entry
// with no content at all is dropped.
func (d *pageDecoder) emitName(f fields, refs []pageref.Ref) error {
	var (
		n   nameParts
		err error
	)
	if n.title, err = d.dropdownOrText(f, vocab.RoleTitleDropdown, vocab.RoleTitleText); err != nil {
		return err
	}
	if n.position, err = d.dropdownOrText(f, vocab.RolePositionDropdown, vocab.RolePositionText); err != nil {
		return err
	}
	if n.forename, err = d.value(f, vocab.RoleForename); err != nil {
		return err
	}
	if n.surname, err = d.value(f, vocab.RoleSurname); err != nil {
		return err
	}
	if n.subject, err = d.value(f, vocab.RoleSubject); err != nil {
		return err
	}
	if n.empty() && len(refs) == 0 {
		return nil
	}
	for _, ref := range expand(refs) {
		d.acc.addName(NameEntry{
			Page:         d.page,
			Title:        n.title,
			Forename:     n.forename,
			Surname:      n.surname,
			Position:     n.position,
			Subject:      n.subject,
			PageRef:      ref.Page,
			MarginalNote: ref.Note,
		})
	}
	return nil
}
