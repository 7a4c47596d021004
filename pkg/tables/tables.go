package tables

import (
	"errors"
	"fmt"
	"strings"
)

const (
	comment = "comment"

	CSVExt     = ".csv"
	ParquetExt = ".parquet"
)

var (
	ErrMissingKeyColumn = errors.New("missing key column")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrIndexMismatch    = errors.New("tables are keyed differently")
	ErrRowWidth         = errors.New("row width does not match columns")
)

// keySep never appears in CSV cell values read from the release or REDCap.
const keySep = "\x1f"

// Key is the composite identifier of a row, such as (subject, arm, visit).
// Keys compare equal only if every part matches exactly.
type Key string

func NewKey(values ...string) Key {
	return Key(strings.Join(values, keySep))
}

// Values returns the parts of the key in index column order.
func (k Key) Values() []string {
	return strings.Split(string(k), keySep)
}

func (k Key) String() string {
	return "(" + strings.Join(k.Values(), ",") + ")"
}

// Table is an in-memory table indexed by a composite key. Index holds the
// names of the key columns; Columns holds the remaining columns, in order.
// Column names may repeat when tables with overlapping columns are joined.
//
// An empty cell is a missing value.
type Table struct {
	Index   []string
	Columns []string

	comments map[string]string
	keys     []Key
	rows     map[Key][]string
}

func NewTable(index, columns []string) *Table {
	return &Table{
		Index:    append([]string(nil), index...),
		Columns:  append([]string(nil), columns...),
		comments: make(map[string]string),
		rows:     make(map[Key][]string),
	}
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.keys)
}

// Keys returns the row keys in row order.
func (t *Table) Keys() []Key {
	return append([]Key(nil), t.keys...)
}

func (t *Table) Has(key Key) bool {
	_, ok := t.rows[key]
	return ok
}

// Row returns the non-index values of the row with the given key. The
// returned slice must not be modified.
func (t *Table) Row(key Key) ([]string, bool) {
	row, ok := t.rows[key]
	return row, ok
}

// ColumnIndex returns the position of the first column with the given name
// in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at key and the first column named column.
func (t *Table) Value(key Key, column string) (string, bool) {
	row, ok := t.rows[key]
	if !ok {
		return "", false
	}
	i := t.ColumnIndex(column)
	if i < 0 {
		return "", false
	}
	return row[i], true
}

// Append adds a row. values must have one entry per column.
func (t *Table) Append(key Key, values []string) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%w: key %s has %d values for %d columns", ErrRowWidth, key, len(values), len(t.Columns))
	}
	if _, exists := t.rows[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	t.keys = append(t.keys, key)
	t.rows[key] = append([]string(nil), values...)
	return nil
}

// AddColumn appends a column whose value for each row is computed from the
// row's existing values.
func (t *Table) AddColumn(name string, value func(row []string) string) {
	t.Columns = append(t.Columns, name)
	for _, key := range t.keys {
		row := t.rows[key]
		extended := make([]string, len(row), len(row)+1)
		copy(extended, row)
		t.rows[key] = append(extended, value(row))
	}
}

// SetComment attaches a description to a column. Comments are carried into
// the parquet schema.
func (t *Table) SetComment(column, text string) {
	t.comments[column] = text
}

func (t *Table) Comment(column string) string {
	return t.comments[column]
}

// Filter returns a table with the rows whose key satisfies keep, in the
// original row order.
func (t *Table) Filter(keep func(Key) bool) *Table {
	result := NewTable(t.Index, t.Columns)
	for column, text := range t.comments {
		result.comments[column] = text
	}

	for _, key := range t.keys {
		if !keep(key) {
			continue
		}
		result.keys = append(result.keys, key)
		result.rows[key] = t.rows[key]
	}

	return result
}

func sameIndex(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
