package pathstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

// Prefix is the root of every key written by the aggregator.
const Prefix = "transcriptions"

// WorkflowKey is the subtree holding one workflow's rows.
func WorkflowKey(res *decode.Result) string {
	return Prefix + "/" + res.Slug()
}

// RowKey addresses row n of page in one table: transcriptions/<workflow>/<table>/<page>/<n>.
func RowKey(res *decode.Result, table string, page, n int) string {
	return fmt.Sprintf("%s/%s/%d/%d", WorkflowKey(res), table, page, n)
}

// Put writes one node; the publisher retries through it.
type Put func(ctx context.Context, key string, req NodeRequest) error

// Publish replaces the workflow's subtree with the rows of res, one node per
// row keyed by page and position within the page. source tags every node.
// It returns the number of nodes written.
func (c *Client) Publish(ctx context.Context, res *decode.Result, source string, put Put) (int, error) {
	if put == nil {
		put = c.PutNode
	}
	if err := c.DeleteNode(ctx, WorkflowKey(res), true); err != nil {
		return 0, fmt.Errorf("clear %s: %w", WorkflowKey(res), err)
	}

	written := 0
	for _, table := range decode.TableNamesInOrder {
		cols := decode.Columns(table)
		perPage := make(map[int]int)
		for _, row := range res.Rows(table) {
			page, err := strconv.Atoi(row[0])
			if err != nil {
				return written, fmt.Errorf("row page %q: %w", row[0], err)
			}
			n := perPage[page]
			perPage[page] = n + 1

			value := make(map[string]string, len(cols))
			for i, col := range cols {
				value[col] = row[i]
			}
			key := RowKey(res, table, page, n)
			if err := put(ctx, key, NodeRequest{Value: value, Source: source}); err != nil {
				return written, fmt.Errorf("publish %s: %w", key, err)
			}
			written++
		}
	}
	return written, nil
}
