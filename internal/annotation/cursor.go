package annotation

// Cursor walks a page's annotation list front to back. Decoders that hand
// the rest of a page to another decoder pass the cursor itself, so the
// transfer is explicit.
type Cursor struct {
	nodes []Node
	pos   int
}

// NewCursor returns a cursor positioned at the first node.
func NewCursor(nodes []Node) *Cursor {
	return &Cursor{nodes: nodes}
}

// Done reports whether every node has been consumed.
func (c *Cursor) Done() bool {
	return c.pos >= len(c.nodes)
}

// Len returns the number of unconsumed nodes.
func (c *Cursor) Len() int {
	return len(c.nodes) - c.pos
}

// Peek returns the next node without consuming it.
func (c *Cursor) Peek() (Node, bool) {
	if c.Done() {
		return Node{}, false
	}
	return c.nodes[c.pos], true
}

// Next consumes and returns the next node.
func (c *Cursor) Next() (Node, bool) {
	n, ok := c.Peek()
	if ok {
		c.pos++
	}
	return n, ok
}

// PushBack un-consumes the most recently consumed node.
func (c *Cursor) PushBack() {
	if c.pos == 0 {
		panic("annotation: PushBack at start of cursor")
	}
	c.pos--
}

// Remaining returns the unconsumed nodes.
func (c *Cursor) Remaining() []Node {
	return c.nodes[c.pos:]
}
