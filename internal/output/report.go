package output

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

// MaxReportRows caps the rows shown per table in a report.
const MaxReportRows = 200

// ReportMarkdown summarizes a run: one section per workflow with its row
// counts and its non-empty tables.
func ReportMarkdown(input string, results []*decode.Result, stats decode.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Aggregation of %s\n\n", input)
	fmt.Fprintf(&b, "%d classifications, %d decoded, %d for other workflows.\n\n",
		stats.Classifications, stats.Decoded, stats.Ignored)

	for _, res := range results {
		fmt.Fprintf(&b, "### %s %s (%s)\n\n", res.Workflow.Name, res.Workflow.Key.Version, input)

		var counts [][]string
		for _, t := range decode.TableNamesInOrder {
			if n := res.Len(t); n > 0 {
				counts = append(counts, []string{t, strconv.Itoa(n)})
			}
		}
		if len(counts) == 0 {
			b.WriteString("No rows.\n\n")
			continue
		}
		b.WriteString(newWriter([]string{"table", "rows"}, counts, nil).RenderMarkdown())
		b.WriteString("\n\n")

		for _, t := range decode.TableNamesInOrder {
			rows := res.Rows(t)
			if len(rows) == 0 {
				continue
			}
			fmt.Fprintf(&b, "#### %s\n\n", t)
			shown := rows
			if len(shown) > MaxReportRows {
				shown = shown[:MaxReportRows]
			}
			b.WriteString(newWriter(decode.Columns(t), shown, nil).RenderMarkdown())
			b.WriteString("\n\n")
			if more := len(rows) - len(shown); more > 0 {
				fmt.Fprintf(&b, "%d more rows not shown.\n\n", more)
			}
		}
	}
	return b.String()
}

// ReportHTML renders a Markdown report as a standalone HTML page.
func ReportHTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
