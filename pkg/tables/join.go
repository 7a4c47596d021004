package tables

import "fmt"

// OuterJoin appends the columns of right to left, aligned by key. The result
// holds the union of both key sets: left's rows in order, then the rows only
// right has, in right's order. Cells from a table that lacks a key are empty.
//
// Both tables must share the same index columns.
func OuterJoin(left, right *Table) (*Table, error) {
	if !sameIndex(left.Index, right.Index) {
		return nil, fmt.Errorf("%w: %v and %v", ErrIndexMismatch, left.Index, right.Index)
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns))
	columns = append(columns, left.Columns...)
	columns = append(columns, right.Columns...)

	result := NewTable(left.Index, columns)
	for column, text := range left.comments {
		result.comments[column] = text
	}
	for column, text := range right.comments {
		result.comments[column] = text
	}

	join := func(key Key) error {
		row := make([]string, len(columns))
		if values, ok := left.rows[key]; ok {
			copy(row, values)
		}
		if values, ok := right.rows[key]; ok {
			copy(row[len(left.Columns):], values)
		}
		return result.Append(key, row)
	}

	for _, key := range left.keys {
		if err := join(key); err != nil {
			return nil, err
		}
	}
	for _, key := range right.keys {
		if left.Has(key) {
			continue
		}
		if err := join(key); err != nil {
			return nil, err
		}
	}

	return result, nil
}
