package dataset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a missing entry.
	Numeric Kind = iota
	// Boolean columns hold 0/1 and never contain missing entries.
	Boolean
	// Categorical columns hold strings; "" marks a missing entry.
	Categorical
	// Encoded columns are categorical columns converted to integer codes.
	Encoded
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Categorical:
		return "categorical"
	case Encoded:
		return "encoded"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNotNumeric is returned when a column expected to be numeric is not.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrEmptyTable is returned when an operation would leave no rows.
	ErrEmptyTable = errors.New("table has no rows")
)

// Column is a named, typed vector. Numeric, Boolean and Encoded columns use
// Num; Categorical columns use Str. Levels holds the category of each code
// for Encoded columns.
type Column struct {
	Name   string
	Kind   Kind
	Num    []float64
	Str    []string
	Levels []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Str)
	}
	return len(c.Num)
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Categorical {
		return c.Str[i] == ""
	}
	return math.IsNaN(c.Num[i])
}

// MissingCount returns the number of missing entries.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// IsNumericLike reports whether the column can be fed to a model as is.
func (c *Column) IsNumericLike() bool {
	return c.Kind != Categorical
}

// Value renders row i for display.
func (c *Column) Value(i int) string {
	if c.IsMissing(i) {
		return "NaN"
	}
	switch c.Kind {
	case Categorical:
		return c.Str[i]
	case Boolean:
		if c.Num[i] != 0 {
			return "true"
		}
		return "false"
	case Encoded:
		return strconv.FormatFloat(c.Num[i], 'f', -1, 64)
	default:
		return strconv.FormatFloat(c.Num[i], 'g', 6, 64)
	}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	if c.Levels != nil {
		out.Levels = append([]string(nil), c.Levels...)
	}
	return out
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Categorical {
		out.Str = make([]string, len(rows))
		for i, r := range rows {
			out.Str[i] = c.Str[r]
		}
	} else {
		out.Num = make([]float64, len(rows))
		for i, r := range rows {
			out.Num[i] = c.Num[r]
		}
	}
	if c.Levels != nil {
		out.Levels = append([]string(nil), c.Levels...)
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	Name    string
	Columns []*Column
}

// NewTable validates that all columns have the same length.
func NewTable(name string, cols ...*Column) (*Table, error) {
	t := &Table{Name: name}
	seen := map[string]struct{}{}
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, errors.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(t.Columns) > 0 && c.Len() != t.Columns[0].Len() {
			return nil, errors.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.Columns[0].Len())
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Require returns ErrMissingColumn naming every absent column.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := t.Column(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMissingColumn, "%v", missing)
	}
	return nil
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.take(rows)
	}
	return out
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Drop returns a table without the named column. The remaining columns are
// shared, not copied.
func (t *Table) Drop(name string) *Table {
	out := &Table{Name: t.Name}
	for _, c := range t.Columns {
		if c.Name != name {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// Matrix returns the table as row-major float64 data. Every column must be
// numeric-like and free of missing values.
func (t *Table) Matrix() ([][]float64, error) {
	for _, c := range t.Columns {
		if !c.IsNumericLike() {
			return nil, errors.Wrapf(ErrNotNumeric, "%q is %s", c.Name, c.Kind)
		}
	}
	n := t.NumRows()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(t.Columns))
		for j, c := range t.Columns {
			v := c.Num[i]
			if math.IsNaN(v) {
				return nil, errors.Errorf("column %q row %d is missing", c.Name, i)
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}

// Row renders row i for display.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Value(i)
	}
	return out
}

func (t *Table) String() string {
	return fmt.Sprintf("%s (%d rows x %d columns)", t.Name, t.NumRows(), t.NumCols())
}
