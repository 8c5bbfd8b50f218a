package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

// Style selects how console tables are drawn.
type Style int

const (
	// StylePlain uses ASCII borders, for pipes and log files.
	StylePlain Style = iota
	// StyleRounded uses box-drawing characters, for terminals.
	StyleRounded
)

func newWriter(headers []string, rows [][]string, numeric map[int]bool) table.Writer {
	columns := len(headers)
	tw := table.NewWriter()

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if numeric[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// RenderTable draws headers and rows as a console table.
func RenderTable(headers []string, rows [][]string, style Style) string {
	if len(headers) == 0 {
		return ""
	}
	tw := newWriter(headers, rows, nil)
	if style == StyleRounded {
		tw.SetStyle(table.StyleRounded)
	}
	return tw.Render()
}

// SummaryRows lists the row count of every output table of every result.
func SummaryRows(results []*decode.Result) (headers []string, rows [][]string) {
	headers = []string{"workflow", "version", "table", "rows"}
	for _, res := range results {
		for _, t := range decode.TableNamesInOrder {
			rows = append(rows, []string{
				res.Workflow.Name,
				res.Workflow.Key.Version.String(),
				t,
				strconv.Itoa(res.Len(t)),
			})
		}
	}
	return headers, rows
}

// RenderSummary draws the per-table row counts of a run.
func RenderSummary(results []*decode.Result, style Style) string {
	headers, rows := SummaryRows(results)
	tw := newWriter(headers, rows, map[int]bool{3: true})
	if style == StyleRounded {
		tw.SetStyle(table.StyleRounded)
	}
	return tw.Render()
}
