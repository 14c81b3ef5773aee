package ogmtest

import (
	"context"

	"github.com/syssam/ogm/graphdriver"
)

// Cursor iterates a fixed, pre-computed set of rows.
type Cursor struct {
	rows []graphdriver.Row
	pos  int
}

func newCursor(rows []graphdriver.Row) *Cursor {
	return &Cursor{rows: rows, pos: -1}
}

func (c *Cursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *Cursor) Record() graphdriver.Row {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil
	}
	return c.rows[c.pos]
}

func (c *Cursor) Err() error { return nil }
