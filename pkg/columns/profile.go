package columns

import (
	"github.com/apache/arrow/go/v18/arrow"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

// Profile summarizes every non-index column of t, in column order.
func Profile(t *tables.Table) []Field {
	fields := make([]Field, len(t.Columns))
	for i := range fields {
		fields[i] = &EmptyField{}
	}

	for _, key := range t.Keys() {
		row, _ := t.Row(key)
		for i, value := range row {
			fields[i] = fields[i].Add(value)
		}
	}

	return fields
}

// ArrowTypes returns the Arrow type of each field.
func ArrowTypes(fields []Field) []arrow.DataType {
	types := make([]arrow.DataType, len(fields))
	for i, f := range fields {
		types[i] = f.ArrowType()
	}
	return types
}
