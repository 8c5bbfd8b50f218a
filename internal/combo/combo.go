// Package combo decodes repeating groups carried by combo tasks.
//
// A combo holding N entries of k fields lists N*k sibling sub-annotations.
// Field j's values are the slice value[j::k]; zipping the k slices yields
// one tuple per entry.
package combo

import (
	"errors"
	"log/slog"

	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Decode validates each sub-annotation against the role expected at its
// stride offset and zips the offsets into per-entry tuples. Each tuple holds
// one node per field, in field order.
//
// Zipping stops at the shortest offset, so a trailing partial entry is
// dropped with a warning.
func Decode(wf *vocab.Workflow, nodes []annotation.Node, fields []vocab.Role, log *slog.Logger) ([][]annotation.Node, error) {
	k := len(fields)
	if k == 0 {
		return nil, errors.New("combo: no fields")
	}

	for i, n := range nodes {
		want := fields[i%k]
		if got := wf.Role(n.Task); got != want {
			return nil, annotation.Errorf(annotation.ErrSchemaViolation, n.Task, n.Value.String(),
				"combo element %d has role %s, expected %s at offset %d of stride %d", i, got, want, i%k, k)
		}
	}

	if rem := len(nodes) % k; rem != 0 {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("combo length is not a multiple of its stride, dropping partial entry",
			"length", len(nodes), "stride", k, "dropped", rem)
	}

	entries := make([][]annotation.Node, len(nodes)/k)
	for i := range entries {
		entry := make([]annotation.Node, k)
		for j := range fields {
			entry[j] = nodes[j+i*k]
		}
		entries[i] = entry
	}
	return entries, nil
}
