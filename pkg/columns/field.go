package columns

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
)

// MaxEnum is the largest number of unique values to track before not trying to
// interpret the column as an enum.
const MaxEnum = 20

// Field summarizes the values seen in one CSV column. Empty cells are missing
// values and never change a Field.
//
// A column which holds both numbers and other text is a string column.
type Field interface {
	// Add records a cell value. The returned Field replaces the receiver, as
	// a value may change what kind of column this is.
	Add(value string) Field
	// ArrowType is the narrowest Arrow type able to hold every value seen.
	ArrowType() arrow.DataType
	String() string
}

// EmptyField represents a column which is never filled in.
// Adding any non-empty value to an EmptyField returns a non-EmptyField.
type EmptyField struct{}

func (nf *EmptyField) Add(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return nf
	}

	var f Field
	if _, ok := parseBool(value); ok {
		f = &BoolField{}
	} else if _, ok := parseNumber(value); ok {
		f = &NumberField{Seen: make(map[float64]int)}
	} else {
		f = &StringField{Seen: make(map[string]int)}
	}
	return f.Add(value)
}

func (nf *EmptyField) ArrowType() arrow.DataType {
	return arrow.BinaryTypes.String
}

func (nf *EmptyField) String() string {
	return "empty"
}

// BoolField indicates the column only ever holds "true" or "false", in any
// case.
type BoolField struct {
	True  int
	False int
}

func (f *BoolField) Add(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}

	b, ok := parseBool(value)
	if !ok {
		s := &StringField{Seen: map[string]int{}}
		if f.True > 0 {
			s.Seen["true"] = f.True
		}
		if f.False > 0 {
			s.Seen["false"] = f.False
		}
		return s.Add(value)
	}

	if b {
		f.True++
	} else {
		f.False++
	}
	return f
}

func (f *BoolField) ArrowType() arrow.DataType {
	return arrow.FixedWidthTypes.Boolean
}

func (f *BoolField) String() string {
	return fmt.Sprintf("true:%d;false:%d", f.True, f.False)
}

// A NumberField only holds numbers. Keeps track of the properties of the
// numbers passed in to determine the types of numbers used.
type NumberField struct {
	// Integral tracks if all instances of this column are integers.
	Integral bool

	// Min and Max allow determining whether the number is unsigned, or, for
	// integers, the smallest type which can hold all seen values.
	Min, Max float64

	// Count is the number of non-empty cells.
	Count int

	// Seen tracks the unique numbers passed to this column.
	// Used for detecting if this is an enumerated column, such as a coded
	// response, where only a few unique values are passed.
	// Stops collecting values after it contains more than MaxEnum entries.
	Seen map[float64]int
}

func (f *NumberField) Add(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}

	o, ok := parseNumber(value)
	if !ok {
		s := &StringField{Seen: make(map[string]int, len(f.Seen))}
		for k, v := range f.Seen {
			s.Seen[strconv.FormatFloat(k, 'f', -1, 64)] = v
		}
		return s.Add(value)
	}

	if f.Count > 0 {
		f.Integral = f.Integral && isIntegral(o)
		if o < f.Min {
			f.Min = o
		}
		if o > f.Max {
			f.Max = o
		}
	} else {
		f.Integral = isIntegral(o)
		f.Min = o
		f.Max = o
	}
	f.Count++

	if len(f.Seen) <= MaxEnum {
		f.Seen[o]++
	}
	return f
}

func (f *NumberField) ArrowType() arrow.DataType {
	if f.Integral {
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.PrimitiveTypes.Float64
}

func isIntegral(f float64) bool {
	return math.Round(f) == f && math.Abs(f) < 1<<53
}

func (f *NumberField) String() string {
	result := strings.Builder{}
	if f.Integral {
		if f.Min < 0 {
			result.WriteString("int")
		} else {
			result.WriteString("uint")
		}
		result.WriteString(fmt.Sprintf(";%d;%d;", int64(f.Min), int64(f.Max)))
	} else {
		result.WriteString(fmt.Sprintf("float;%g;%g;", f.Min, f.Max))
	}

	if len(f.Seen) <= MaxEnum {
		keys := make([]float64, 0, len(f.Seen))
		for k := range f.Seen {
			keys = append(keys, k)
		}
		sort.Float64s(keys)

		for _, k := range keys {
			result.WriteString(fmt.Sprintf("%s:%d;", strconv.FormatFloat(k, 'f', -1, 64), f.Seen[k]))
		}
	}

	return result.String()
}

// A StringField holds free text, or a mix of text and numbers.
type StringField struct {
	// Seen attempts to determine if the column is actually an enum with a
	// small number of unique values.
	Seen map[string]int
}

func (f *StringField) Add(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}

	if len(f.Seen) <= MaxEnum {
		f.Seen[value]++
	}
	return f
}

func (f *StringField) ArrowType() arrow.DataType {
	return arrow.BinaryTypes.String
}

func (f *StringField) String() string {
	result := strings.Builder{}
	if len(f.Seen) <= MaxEnum {
		result.WriteString(fmt.Sprintf("enum;%d;", len(f.Seen)))

		keys := make([]string, 0, len(f.Seen))
		for k := range f.Seen {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			result.WriteString(fmt.Sprintf("%s:%d;", k, f.Seen[k]))
		}
	} else {
		result.WriteString("string;")
	}

	return result.String()
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func parseNumber(value string) (float64, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
