package decode

import (
	"sort"
	"strconv"
)

// IndexEntry is one row of an index "other page": a subject under a heading
// and one of its page references.
type IndexEntry struct {
	Page         int
	Entry        int
	Heading      string
	Subject      string
	PageRef      string
	MarginalNote string
	Comment      string
}

// NameEntry is one row of an index name list.
type NameEntry struct {
	Page         int
	Entry        int
	Title        string
	Forename     string
	Surname      string
	Position     string
	Subject      string
	PageRef      string
	MarginalNote string
	Comment      string
}

// Attendee is one person present at a meeting.
type Attendee struct {
	Page int
	Name string
}

// Item is one agenda item of a minutes page.
type Item struct {
	Page           int
	Number         string
	Title          string
	Text           string
	Resolution     string
	Classification string
}

// TableWidth is the number of cell columns in a TableRow. Wider tables are
// emitted in bands of this many columns.
const TableWidth = 6

// TableRow is one row of a table transcribed from a minutes page. Row 0 of
// each band is the heading row.
type TableRow struct {
	Page       int
	ItemNumber string
	TableIndex int
	Title      string
	Row        int
	Cells      [TableWidth]string
}

// Comment is a free-text volunteer remark about a page.
type Comment struct {
	Page int
	Text string
}

// Line is one underline stroke.
type Line struct {
	Page       int
	StrokeType string
	X1, Y1     float64
	X2, Y2     float64
}

// Output table names, in report order.
const (
	TableIndex     = "index"
	TableNames     = "names"
	TableAttendees = "attendees"
	TableItems     = "items"
	TableTables    = "tables"
	TableComments  = "comments"
	TableLines     = "lines"
)

// TableNamesInOrder lists every output table.
var TableNamesInOrder = []string{
	TableIndex, TableNames, TableAttendees, TableItems, TableTables, TableComments, TableLines,
}

var columns = map[string][]string{
	TableIndex:     {"page", "entry", "heading", "subject", "page_ref", "marginal_note", "comment"},
	TableNames:     {"page", "entry", "title", "forename", "surname", "position", "subject", "page_ref", "marginal_note", "comment"},
	TableAttendees: {"page", "name"},
	TableItems:     {"page", "item_number", "title", "text", "resolution", "classification"},
	TableTables:    {"page", "item_number", "table_index", "title", "row", "col1", "col2", "col3", "col4", "col5", "col6"},
	TableComments:  {"page", "comment"},
	TableLines:     {"page", "stroke_type", "x1", "y1", "x2", "y2"},
}

// Columns returns the column names of an output table, or nil for an
// unknown table.
func Columns(table string) []string {
	return columns[table]
}

// Tables holds every output table of one workflow.
type Tables struct {
	Index     []IndexEntry
	Names     []NameEntry
	Attendees []Attendee
	Items     []Item
	TableRows []TableRow
	Comments  []Comment
	Lines     []Line
}

// Len returns the row count of the named table.
func (t *Tables) Len(table string) int {
	switch table {
	case TableIndex:
		return len(t.Index)
	case TableNames:
		return len(t.Names)
	case TableAttendees:
		return len(t.Attendees)
	case TableItems:
		return len(t.Items)
	case TableTables:
		return len(t.TableRows)
	case TableComments:
		return len(t.Comments)
	case TableLines:
		return len(t.Lines)
	}
	return 0
}

// Rows renders the named table as strings in Columns order. Empty strings
// stand for missing values.
func (t *Tables) Rows(table string) [][]string {
	var out [][]string
	switch table {
	case TableIndex:
		for _, r := range t.Index {
			out = append(out, []string{itoa(r.Page), itoa(r.Entry), r.Heading, r.Subject, r.PageRef, r.MarginalNote, r.Comment})
		}
	case TableNames:
		for _, r := range t.Names {
			out = append(out, []string{itoa(r.Page), itoa(r.Entry), r.Title, r.Forename, r.Surname, r.Position, r.Subject, r.PageRef, r.MarginalNote, r.Comment})
		}
	case TableAttendees:
		for _, r := range t.Attendees {
			out = append(out, []string{itoa(r.Page), r.Name})
		}
	case TableItems:
		for _, r := range t.Items {
			out = append(out, []string{itoa(r.Page), r.Number, r.Title, r.Text, r.Resolution, r.Classification})
		}
	case TableTables:
		for _, r := range t.TableRows {
			row := []string{itoa(r.Page), r.ItemNumber, itoa(r.TableIndex), r.Title, itoa(r.Row)}
			out = append(out, append(row, r.Cells[:]...))
		}
	case TableComments:
		for _, r := range t.Comments {
			out = append(out, []string{itoa(r.Page), r.Text})
		}
	case TableLines:
		for _, r := range t.Lines {
			out = append(out, []string{itoa(r.Page), r.StrokeType, ftoa(r.X1), ftoa(r.Y1), ftoa(r.X2), ftoa(r.Y2)})
		}
	}
	return out
}

// sort orders every table by page, then entry number. Tables without entry
// numbers keep emission order within a page.
func (t *Tables) sort() {
	sort.SliceStable(t.Index, func(i, j int) bool {
		a, b := t.Index[i], t.Index[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Entry < b.Entry
	})
	sort.SliceStable(t.Names, func(i, j int) bool {
		a, b := t.Names[i], t.Names[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Entry < b.Entry
	})
	sort.SliceStable(t.Attendees, func(i, j int) bool { return t.Attendees[i].Page < t.Attendees[j].Page })
	sort.SliceStable(t.Items, func(i, j int) bool { return t.Items[i].Page < t.Items[j].Page })
	sort.SliceStable(t.TableRows, func(i, j int) bool { return t.TableRows[i].Page < t.TableRows[j].Page })
	sort.SliceStable(t.Comments, func(i, j int) bool { return t.Comments[i].Page < t.Comments[j].Page })
	sort.SliceStable(t.Lines, func(i, j int) bool { return t.Lines[i].Page < t.Lines[j].Page })
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
