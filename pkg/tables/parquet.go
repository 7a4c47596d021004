package tables

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

var ErrUnsupportedType = errors.New("unsupported column type")

// Schema describes t as an Arrow schema. Index columns are non-nullable
// strings. types holds one entry per column of t.Columns; a nil entry means
// string. Column comments become field metadata.
func Schema(t *Table, types []arrow.DataType, metadata *arrow.Metadata) (*arrow.Schema, error) {
	if types != nil && len(types) != len(t.Columns) {
		return nil, fmt.Errorf("%w: %d types for %d columns", ErrRowWidth, len(types), len(t.Columns))
	}

	fields := make([]arrow.Field, 0, len(t.Index)+len(t.Columns))
	for _, name := range t.Index {
		fields = append(fields, arrow.Field{
			Name: name,
			Type: arrow.BinaryTypes.String,
			Metadata: NewMetadataBuilder().AddComment(
				"Key column",
			).Build(),
		})
	}

	for i, name := range t.Columns {
		var dataType arrow.DataType = arrow.BinaryTypes.String
		if types != nil && types[i] != nil {
			dataType = types[i]
		}

		switch dataType.ID() {
		case arrow.STRING, arrow.INT64, arrow.FLOAT64, arrow.BOOL:
		default:
			return nil, fmt.Errorf("%w %s for column %q", ErrUnsupportedType, dataType, name)
		}

		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     dataType,
			Nullable: true,
			Metadata: NewMetadataBuilder().AddComment(
				t.Comment(name),
			).Build(),
		})
	}

	return arrow.NewSchema(fields, metadata), nil
}

// NewRecord converts t into a single Arrow record. Empty cells become nulls.
// The caller must Release the record.
func NewRecord(allocator memory.Allocator, t *Table, schema *arrow.Schema) (arrow.Record, error) {
	recordBuilder := array.NewRecordBuilder(allocator, schema)
	defer recordBuilder.Release()

	nIndex := len(t.Index)
	for _, key := range t.keys {
		for i, value := range key.Values() {
			recordBuilder.Field(i).(*array.StringBuilder).Append(value)
		}

		for j, value := range t.rows[key] {
			err := appendValue(recordBuilder.Field(nIndex+j), value)
			if err != nil {
				return nil, fmt.Errorf("key %s column %q: %w", key, t.Columns[j], err)
			}
		}
	}

	return recordBuilder.NewRecord(), nil
}

func appendValue(builder array.Builder, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.StringBuilder:
		b.Append(value)
	case *array.Int64Builder:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if math.Trunc(f) != f {
			return fmt.Errorf("%q is not an integer", value)
		}
		b.Append(int64(f))
	case *array.Float64Builder:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		b.Append(f)
	case *array.BooleanBuilder:
		v, err := ParseBool(value)
		if err != nil {
			return err
		}
		b.Append(v)
	default:
		return fmt.Errorf("%w %T", ErrUnsupportedType, builder)
	}

	return nil
}

// ParseBool accepts the spellings of booleans found in release tables:
// 1/0 and true/false in any case.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", value)
	}
}

// WriteParquet writes t to w as a gzip-compressed parquet file. The Arrow
// schema is stored in the file, so readers get back the field comments and
// schema metadata. If w is an io.Closer, the parquet writer closes it.
func WriteParquet(w io.Writer, t *Table, types []arrow.DataType, metadata *arrow.Metadata) error {
	schema, err := Schema(t, types, metadata)
	if err != nil {
		return err
	}

	record, err := NewRecord(memory.NewGoAllocator(), t, schema)
	if err != nil {
		return err
	}
	defer record.Release()

	writer, err := pqarrow.NewFileWriter(
		schema,
		w,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}

	err = writer.Write(record)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}

	return nil
}
