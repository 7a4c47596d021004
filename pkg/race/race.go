// Package race derives per-category indicator columns from the coded race
// column of the demographics table.
package race

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

// Column is the demographics column holding the race code.
const Column = "race"

const (
	indicatorTrue  = "1"
	indicatorFalse = "0"
)

type Category struct {
	Name string
	Code int
}

// Categories lists the race codes used by the demographics form. Indicator
// columns are added in this order.
var Categories = []Category{
	{Name: "native_american_american_indian", Code: 1},
	{Name: "asian", Code: 2},
	{Name: "pacific_islander", Code: 3},
	{Name: "african_american_black", Code: 4},
	{Name: "caucasian_white", Code: 5},
}

// Code parses a race cell. Codes may be written as integers or as whole
// floats ("5.0"); anything else, including an empty cell, is not a code.
func Code(value string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// AddIndicators appends one column per category, named after the category,
// holding 1 where the row's code in column equals the category code and 0
// otherwise. At most one indicator is 1 in any row.
func AddIndicators(t *tables.Table, column string, categories []Category) error {
	i := t.ColumnIndex(column)
	if i < 0 {
		return fmt.Errorf("%w: no %q column to derive race indicators from", errs.ErrInput, column)
	}

	for _, category := range categories {
		code := category.Code
		t.AddColumn(category.Name, func(row []string) string {
			if got, ok := Code(row[i]); ok && got == code {
				return indicatorTrue
			}
			return indicatorFalse
		})
		t.SetComment(category.Name, fmt.Sprintf("Whether %s is %d (%s)", column, code, category.Name))
	}

	return nil
}

// IsIndicator reports whether name is the indicator column of a category.
func IsIndicator(name string, categories []Category) bool {
	for _, category := range categories {
		if category.Name == name {
			return true
		}
	}
	return false
}
