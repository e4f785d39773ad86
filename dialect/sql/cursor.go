package sql

import (
	"errors"
	"fmt"
	"io"
)

// Cursor is a forward reader over the rows of one statement. Rows are
// streamed from the driver until the row count or an absolute position is
// needed; from then on the remaining result is buffered client-side and
// the server-side result set is released.
type Cursor struct {
	rows    ColumnScanner
	columns []string
	buf     [][]any
	base    int // row index of buf[0]
	pos     int // row index returned by the next call to Next
	done    bool
	err     error
}

// NewCursor wraps rows returned by Conn.Query.
func NewCursor(rows *Rows) (*Cursor, error) {
	if rows == nil || rows.ColumnScanner == nil {
		return nil, errors.New("dialect/sql: cursor over nil rows")
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("dialect/sql: cursor columns: %w", err)
	}
	return &Cursor{rows: rows.ColumnScanner, columns: columns}, nil
}

// Columns returns the column names of the result.
func (c *Cursor) Columns() []string { return c.columns }

// Pos returns the index of the row the next call to Next returns.
func (c *Cursor) Pos() int { return c.pos }

// Next returns the next row, or io.EOF once the result is exhausted.
func (c *Cursor) Next() ([]any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if i := c.pos - c.base; i < len(c.buf) {
		c.pos++
		return c.buf[i], nil
	}
	if c.done {
		return nil, io.EOF
	}
	row, err := c.fetch()
	if err != nil {
		return nil, err
	}
	c.pos++
	c.buf, c.base = nil, c.pos
	return row, nil
}

// RowCount returns the number of rows in the result. It buffers what is
// left of the result.
func (c *Cursor) RowCount() (int, error) {
	if err := c.fill(); err != nil {
		return 0, err
	}
	return c.base + len(c.buf), nil
}

// ScrollTo moves the cursor to the absolute row index i. Rows already
// streamed past cannot be revisited.
func (c *Cursor) ScrollTo(i int) error {
	if err := c.fill(); err != nil {
		return err
	}
	if i < c.base || i > c.base+len(c.buf) {
		return fmt.Errorf("dialect/sql: scroll to %d out of range [%d, %d]", i, c.base, c.base+len(c.buf))
	}
	c.pos = i
	return nil
}

// Detach buffers the rest of the result and releases the server-side
// result set, leaving the cursor readable.
func (c *Cursor) Detach() error {
	return c.fill()
}

// Close releases the cursor. Buffered rows are dropped.
func (c *Cursor) Close() error {
	c.buf = nil
	if c.done {
		return nil
	}
	c.done = true
	if err := c.rows.Close(); err != nil {
		return fmt.Errorf("dialect/sql: close cursor: %w", err)
	}
	return nil
}

func (c *Cursor) fill() error {
	if c.err != nil {
		return c.err
	}
	for !c.done {
		row, err := c.fetch()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		c.buf = append(c.buf, row)
	}
	return nil
}

// fetch reads one row from the driver and closes it at the end of the
// result.
func (c *Cursor) fetch() ([]any, error) {
	if !c.rows.Next() {
		c.done = true
		err := c.rows.Err()
		if cerr := c.rows.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			c.err = fmt.Errorf("dialect/sql: cursor: %w", err)
			return nil, c.err
		}
		return nil, io.EOF
	}
	row := make([]any, len(c.columns))
	dest := make([]any, len(row))
	for i := range row {
		dest[i] = &row[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		c.err = fmt.Errorf("dialect/sql: cursor scan: %w", err)
		_ = c.Close()
		return nil, c.err
	}
	return row, nil
}
