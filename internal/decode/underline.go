package decode

import (
	"github.com/dgallion1/sbaggregate/internal/annotation"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// underline decodes the drawn underlines of a page into lines bucketed by
// tool, in tool order.
func (d *pageDecoder) underline(cur *annotation.Cursor) error {
	for node, ok := cur.Next(); ok; node, ok = cur.Next() {
		var err error
		switch d.wf.Role(node.Task) {
		case vocab.RoleStrokes:
			err = d.strokes(node)
		case vocab.RoleComment:
			err = d.comment(node)
		case vocab.RoleSkip:
		default:
			err = d.unexpected(node, "an underlining page")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *pageDecoder) strokes(node annotation.Node) error {
	strokes, err := d.ex.Strokes(node, vocab.RoleStrokes)
	if err != nil {
		return err
	}
	tools := d.wf.StrokeTools
	buckets := make([][]annotation.Stroke, len(tools))
	for _, s := range strokes {
		if s.Tool < 0 || s.Tool >= len(tools) {
			return annotation.Errorf(annotation.ErrSchemaViolation, node.Task, node.Value.String(),
				"stroke tool %d out of range, workflow has %d tools", s.Tool, len(tools))
		}
		buckets[s.Tool] = append(buckets[s.Tool], s)
	}
	for tool, bucket := range buckets {
		for _, s := range bucket {
			d.acc.Lines = append(d.acc.Lines, Line{
				Page:       d.page,
				StrokeType: tools[tool],
				X1:         s.X1,
				Y1:         s.Y1,
				X2:         s.X2,
				Y2:         s.Y2,
			})
		}
	}
	return nil
}
