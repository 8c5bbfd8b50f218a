package decode

import (
	"strconv"
	"strings"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/combo"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// minutes decodes the front matter of a minutes page: attendees, agenda
// items and the tables attached to them.
func (d *pageDecoder) minutes(cur *annotation.Cursor) error {
	tb := &tableBuilder{}
	for node, ok := cur.Next(); ok; node, ok = cur.Next() {
		var err error
		switch d.wf.Role(node.Task) {
		case vocab.RoleAttendeeChecklist:
			err = d.attendeeChecklist(node)
		case vocab.RoleAttendeeText:
			err = d.otherAttendees(node)
		case vocab.RoleItemChecklist:
			err = d.itemChecklist(node)
		case vocab.RoleItemCombo:
			err = d.itemCombo(node, tb)
		case vocab.RoleTableHeader:
			err = d.tableHeader(node, tb)
		case vocab.RoleTableRow:
			err = d.tableRow(node, tb)
		case vocab.RoleTableColumns:
			err = d.tableColumns(node, tb)
		case vocab.RoleTableControl:
			err = d.tableControl(node, tb)
		case vocab.RoleComment:
			err = d.comment(node)
		case vocab.RoleSkip:
		default:
			err = d.unexpected(node, "a minutes page")
		}
		if err != nil {
			return err
		}
	}
	tb.flush(d)
	return nil
}

func (d *pageDecoder) attendeeChecklist(node annotation.Node) error {
	names, err := d.ex.Checklist(node, vocab.RoleAttendeeChecklist)
	if err != nil {
		return err
	}
	for _, name := range names {
		d.acc.Attendees = append(d.acc.Attendees, Attendee{Page: d.page, Name: name})
	}
	return nil
}

// otherAttendees splits the free-text attendee box on newlines.
func (d *pageDecoder) otherAttendees(node annotation.Node) error {
	text, err := d.ex.Value(node, vocab.RoleAttendeeText)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			d.acc.Attendees = append(d.acc.Attendees, Attendee{Page: d.page, Name: name})
		}
	}
	return nil
}

// itemChecklist records each ticked standard agenda item by its label.
func (d *pageDecoder) itemChecklist(node annotation.Node) error {
	titles, err := d.ex.Checklist(node, vocab.RoleItemChecklist)
	if err != nil {
		return err
	}
	for _, title := range titles {
		d.acc.Items = append(d.acc.Items, Item{Page: d.page, Title: title})
	}
	return nil
}

func (d *pageDecoder) itemCombo(node annotation.Node, tb *tableBuilder) error {
	subs, err := d.ex.SubNodes(node, vocab.RoleItemCombo)
	if err != nil {
		return err
	}
	entries, err := combo.Decode(d.wf, subs, d.wf.ItemFields, d.log.With("page", d.page))
	if err != nil {
		return annotation.WithTask(err, node.Task)
	}
	for _, entry := range entries {
		f := d.entryFields(entry)
		var it Item
		it.Page = d.page
		if it.Number, err = d.dropdownOrText(f, vocab.RoleItemNumberDropdown, vocab.RoleItemNumberText); err != nil {
			return err
		}
		if it.Title, err = d.value(f, vocab.RoleItemTitle); err != nil {
			return err
		}
		if it.Text, err = d.value(f, vocab.RoleItemText); err != nil {
			return err
		}
		if it.Resolution, err = d.value(f, vocab.RoleItemResolution); err != nil {
			return err
		}
		if it.Classification, err = d.value(f, vocab.RoleItemClassification); err != nil {
			return err
		}
		if it.Number != "" {
			if _, err := strconv.Atoi(it.Number); err != nil {
				d.log.Warn("non-numeric agenda item number",
					"page", d.page, "task", node.Task, "value", it.Number)
			}
			tb.itemNumber = it.Number
		}
		d.acc.Items = append(d.acc.Items, it)
	}
	return nil
}

// tableBuilder accumulates one table of a minutes page between its header
// and the control answer that closes it.
type tableBuilder struct {
	open       bool
	title      string
	itemNumber string
	rows       [][]string
	// expect is the action chosen by the last table control answer.
	expect vocab.TableAction
}

func (d *pageDecoder) tableHeader(node annotation.Node, tb *tableBuilder) error {
	subs, err := d.ex.SubNodes(node, vocab.RoleTableHeader)
	if err != nil {
		return err
	}
	tb.flush(d)

	var headings []string
	title := ""
	for _, sub := range subs {
		role, err := d.ex.Check(sub, vocab.RoleTableTitle, vocab.RoleTableHeading)
		if err != nil {
			return err
		}
		v, err := d.ex.Value(sub, role)
		if err != nil {
			return err
		}
		if role == vocab.RoleTableTitle {
			title = v
			continue
		}
		headings = append(headings, v)
	}
	tb.open = true
	tb.title = title
	tb.rows = [][]string{headings}
	tb.expect = ""
	return nil
}

func (d *pageDecoder) tableCells(node annotation.Node, role vocab.Role, tb *tableBuilder, want vocab.TableAction) ([]string, error) {
	if !tb.open {
		return nil, annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
			"%s with no open table", role)
	}
	if tb.expect != "" && tb.expect != want {
		return nil, annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
			"%s after table control answer %q", role, tb.expect)
	}
	subs, err := d.ex.SubNodes(node, role)
	if err != nil {
		return nil, err
	}
	tb.expect = ""
	return d.ex.Values(subs, vocab.RoleTableCell)
}

func (d *pageDecoder) tableRow(node annotation.Node, tb *tableBuilder) error {
	cells, err := d.tableCells(node, vocab.RoleTableRow, tb, vocab.TableMoreRows)
	if err != nil {
		return err
	}
	tb.rows = append(tb.rows, cells)
	return nil
}

// tableColumns appends extra cells to the last row.
func (d *pageDecoder) tableColumns(node annotation.Node, tb *tableBuilder) error {
	cells, err := d.tableCells(node, vocab.RoleTableColumns, tb, vocab.TableMoreColumns)
	if err != nil {
		return err
	}
	last := len(tb.rows) - 1
	tb.rows[last] = append(tb.rows[last], cells...)
	return nil
}

func (d *pageDecoder) tableControl(node annotation.Node, tb *tableBuilder) error {
	answer, err := d.ex.Value(node, vocab.RoleTableControl)
	if err != nil {
		return err
	}
	action, ok := d.wf.TableAction(answer)
	if !ok {
		return annotation.Errorf(annotation.ErrUnknownControlValue, node.Task, answer,
			"expected one of %q", d.wf.TableAnswers())
	}
	if action == vocab.TableFlush {
		tb.flush(d)
		return nil
	}
	if !tb.open {
		return annotation.Errorf(annotation.ErrSchemaViolation, node.Task, answer,
			"table control answer with no open table")
	}
	tb.expect = action
	return nil
}

// flush writes the open table, padding every row with empty cells to the
// width of the widest row. Tables wider than TableWidth are written as
// successive bands of TableWidth columns.
func (tb *tableBuilder) flush(d *pageDecoder) {
	if !tb.open {
		return
	}
	width := 0
	for _, r := range tb.rows {
		width = max(width, len(r))
	}
	if width == 0 {
		*tb = tableBuilder{itemNumber: tb.itemNumber}
		return
	}
	index := d.acc.next(TableTables, d.page)
	row := 0
	for band := 0; band < width; band += TableWidth {
		for _, r := range tb.rows {
			out := TableRow{
				Page:       d.page,
				ItemNumber: tb.itemNumber,
				TableIndex: index,
				Title:      tb.title,
				Row:        row,
			}
			for c := 0; c < TableWidth && band+c < len(r); c++ {
				out.Cells[c] = r[band+c]
			}
			d.acc.TableRows = append(d.acc.TableRows, out)
			row++
		}
	}
	*tb = tableBuilder{itemNumber: tb.itemNumber}
}
