package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CellKind identifies the type of a single cell value.
type CellKind int

const (
	KindNull CellKind = iota
	KindNumber
	KindString
	KindTime
)

// ColumnKind identifies the inferred type of a whole column.
type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnCategorical ColumnKind = "categorical"
	ColumnDatetime    ColumnKind = "datetime"
)

// Cell is a single table value. A cell with KindNull represents a missing
// value regardless of the column it lives in.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
	Time time.Time
}

// Null returns a missing cell.
func Null() Cell { return Cell{Kind: KindNull} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{Kind: KindNumber, Num: v} }

// String returns a string cell.
func String(v string) Cell { return Cell{Kind: KindString, Str: v} }

// Time returns a datetime cell.
func Time(v time.Time) Cell { return Cell{Kind: KindTime, Time: v} }

// IsNull reports whether the cell is missing.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Render returns the display form of the cell. Null cells render empty.
func (c Cell) Render() string {
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindString:
		return c.Str
	case KindTime:
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// MarshalJSON encodes the cell as its native JSON value.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindNumber:
		return json.Marshal(c.Num)
	case KindString:
		return json.Marshal(c.Str)
	case KindTime:
		return json.Marshal(c.Time.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// Column is a named, ordered list of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Kind infers the column type from its non-missing cells. A column where
// every non-missing cell is a number is numeric; all times is datetime;
// anything else, including an all-missing column, is categorical.
func (c *Column) Kind() ColumnKind {
	numbers, times, present := 0, 0, 0
	for _, cell := range c.Cells {
		switch cell.Kind {
		case KindNull:
			continue
		case KindNumber:
			numbers++
		case KindTime:
			times++
		}
		present++
	}
	switch {
	case present > 0 && numbers == present:
		return ColumnNumeric
	case present > 0 && times == present:
		return ColumnDatetime
	default:
		return ColumnCategorical
	}
}

// MissingCount returns the number of missing cells in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.IsNull() {
			n++
		}
	}
	return n
}

// Values returns the rendered non-missing cell values in row order.
func (c *Column) Values() []string {
	out := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.IsNull() {
			out = append(out, cell.Render())
		}
	}
	return out
}

// Numbers returns the numeric values of non-missing number cells in row order.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Kind == KindNumber {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Table is an in-memory table of named columns holding the same number of
// rows. It is the single entity the whole pipeline operates on.
type Table struct {
	Columns []*Column
}

// NewTable creates an empty table with the given column names.
func NewTable(names ...string) *Table {
	t := &Table{Columns: make([]*Column, 0, len(names))}
	for _, name := range names {
		t.Columns = append(t.Columns, &Column{Name: name})
	}
	return t
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Cols returns the number of columns in the table.
func (t *Table) Cols() int { return len(t.Columns) }

// Column returns the named column, or nil if it does not exist.
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// AppendRow appends one row of cells. The number of cells must match the
// number of columns.
func (t *Table) AppendRow(cells []Cell) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	for i, cell := range cells {
		t.Columns[i].Cells = append(t.Columns[i].Cells, cell)
	}
	return nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j, col := range t.Columns {
		row[j] = col.Cells[i]
	}
	return row
}

// RowKey returns a string identity for row i, used for duplicate detection.
func (t *Table) RowKey(i int) string {
	parts := make([]string, len(t.Columns))
	for j, col := range t.Columns {
		cell := col.Cells[i]
		if cell.IsNull() {
			parts[j] = "\x00"
		} else {
			parts[j] = cell.Render()
		}
	}
	return strings.Join(parts, "\x1f")
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, col := range t.Columns {
		cells := make([]Cell, len(col.Cells))
		copy(cells, col.Cells)
		out.Columns[i] = &Column{Name: col.Name, Cells: cells}
	}
	return out
}

// Head returns a copy of the first n rows, or the whole table when it has
// fewer rows.
func (t *Table) Head(n int) *Table {
	if n > t.Rows() {
		n = t.Rows()
	}
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, col := range t.Columns {
		cells := make([]Cell, n)
		copy(cells, col.Cells[:n])
		out.Columns[i] = &Column{Name: col.Name, Cells: cells}
	}
	return out
}

// Records returns the table as a slice of row maps keyed by column name.
// This is the shape handed to JSON responses for previews.
func (t *Table) Records() []map[string]Cell {
	records := make([]map[string]Cell, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		record := make(map[string]Cell, len(t.Columns))
		for _, col := range t.Columns {
			record[col.Name] = col.Cells[i]
		}
		records[i] = record
	}
	return records
}
