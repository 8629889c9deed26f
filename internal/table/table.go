package table

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the scalar type held by a Cell.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindBool
)

// Cell is a single scalar value in a table. The zero value is the missing
// marker, which is distinct from both the empty string and the number zero.
type Cell struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
}

// Missing is the explicit missing-cell marker.
var Missing = Cell{}

// String returns a string cell.
func String(s string) Cell { return Cell{kind: KindString, str: s} }

// Number returns a numeric cell.
func Number(d decimal.Decimal) Cell { return Cell{kind: KindNumber, num: d} }

// NumberFromFloat returns a numeric cell from a float64.
func NumberFromFloat(f float64) Cell { return Number(decimal.NewFromFloat(f)) }

// Bool returns a boolean cell.
func Bool(b bool) Cell { return Cell{kind: KindBool, b: b} }

// Kind returns the scalar kind of the cell.
func (c Cell) Kind() Kind { return c.kind }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Number returns the numeric value and whether the cell is numeric.
func (c Cell) Number() (decimal.Decimal, bool) {
	if c.kind != KindNumber {
		return decimal.Decimal{}, false
	}
	return c.num, true
}

// Bool returns the boolean value and whether the cell is boolean.
func (c Cell) Bool() (bool, bool) {
	if c.kind != KindBool {
		return false, false
	}
	return c.b, true
}

// Text renders the cell as a string. Missing cells render as "".
func (c Cell) Text() string {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return c.num.String()
	case KindBool:
		if c.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Value returns the cell as a value suitable for a spreadsheet write.
// Missing cells become the empty string.
func (c Cell) Value() interface{} {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		f, _ := c.num.Float64()
		return f
	case KindBool:
		return c.b
	default:
		return ""
	}
}

// ParseNumber parses a cell-sized string into a decimal. It reports false for
// anything that is not a plain numeric literal.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Row maps column names to cells. A key absent from the map is equivalent to
// a Missing cell.
type Row map[string]Cell

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered-column, ragged-row tabular dataset. Columns are typed
// per cell rather than per column; callers coerce as needed.
type Table struct {
	cols []string
	rows []Row
}

// New returns an empty table with the given column order.
func New(cols ...string) *Table {
	return &Table{cols: append([]string(nil), cols...)}
}

// FromGrid builds a table from a header row and data rows of strings, the
// shape produced by spreadsheet reads and CSV parsers. Cells absent from a
// short row are Missing; cells beyond the header width are dropped.
func FromGrid(header []string, rows [][]string) *Table {
	t := New(header...)
	for _, raw := range rows {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = String(raw[i])
			}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Columns returns a copy of the column order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IsEmpty reports whether the table is nil or has no data rows.
func (t *Table) IsEmpty() bool { return t.Len() == 0 }

// Row returns the i-th row. The row is live: mutating it mutates the table.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Append adds a row to the end of the table.
func (t *Table) Append(r Row) { t.rows = append(t.rows, r) }

// HasColumn reports whether the column is part of the table.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.cols {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column filled with the given cell on every existing
// row. It is a no-op when the column already exists.
func (t *Table) AddColumn(name string, fill Cell) {
	if t.HasColumn(name) {
		return
	}
	t.cols = append(t.cols, name)
	for _, r := range t.rows {
		r[name] = fill
	}
}

// RenameColumn renames a column in place, carrying the cells over. The
// caller must ensure the new name does not collide with an existing column.
func (t *Table) RenameColumn(old, new string) {
	if old == new {
		return
	}
	for i, c := range t.cols {
		if c == old {
			t.cols[i] = new
			break
		}
	}
	for _, r := range t.rows {
		if cell, ok := r[old]; ok {
			r[new] = cell
			delete(r, old)
		}
	}
}

// Get returns the cell at row i, column col (Missing when unset).
func (t *Table) Get(i int, col string) Cell { return t.rows[i][col] }

// Set stores a cell at row i, column col.
func (t *Table) Set(i int, col string, c Cell) { t.rows[i][col] = c }

// Clone returns a deep copy sharing nothing with the receiver.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := New(t.cols...)
	out.rows = make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out.rows = append(out.rows, r.Clone())
	}
	return out
}

// Filter returns a new table with the same columns holding copies of the
// rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.cols...)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// WriteCSV writes the table as UTF-8 CSV with a header row. Missing cells
// are written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return err
	}
	record := make([]string, len(t.cols))
	for _, r := range t.rows {
		for i, col := range t.cols {
			record[i] = r[col].Text()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
