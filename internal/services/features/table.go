package features

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// Cell is a table value: Present (Valid) or Missing.
type Cell = null.Float

// Present wraps v as a present cell.
func Present(v float64) Cell { return null.FloatFrom(v) }

// Missing is the absent cell.
var Missing = Cell{}

// Column is a named, date-aligned vector of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Table is a date-indexed set of ordered columns. Every column has one cell per date.
type Table struct {
	Dates   []time.Time
	columns []Column
	index   map[string]int
}

// NewTable creates an empty table over the given dates.
func NewTable(dates []time.Time) *Table {
	return &Table{Dates: dates, index: make(map[string]int)}
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Dates) }

// Width is the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// AddColumn appends a column, or replaces the cells of an existing one in place.
func (t *Table) AddColumn(name string, cells []Cell) error {
	if len(cells) != len(t.Dates) {
		return fmt.Errorf("column %q has %d cells for %d dates", name, len(cells), len(t.Dates))
	}
	if i, ok := t.index[name]; ok {
		t.columns[i].Cells = cells
		return nil
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Cells: cells})
	return nil
}

// mustAddColumn is AddColumn for callers that build cells from t.Dates.
// A length mismatch there is a programming error.
func (t *Table) mustAddColumn(name string, cells []Cell) {
	if err := t.AddColumn(name, cells); err != nil {
		panic(err)
	}
}

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i].Cells, true
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. Callers must not modify the cells.
func (t *Table) Columns() []Column { return t.columns }

// MissingColumns returns the names of columns with no present cell.
func (t *Table) MissingColumns() []string {
	var out []string
	for _, c := range t.columns {
		if countPresent(c.Cells) == 0 {
			out = append(out, c.Name)
		}
	}
	return out
}

func missingCells(n int) []Cell {
	return make([]Cell, n)
}

func countPresent(cells []Cell) int {
	n := 0
	for _, c := range cells {
		if c.Valid {
			n++
		}
	}
	return n
}
