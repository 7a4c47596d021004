package tables

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/willbeason/ncanda-reports/pkg/errs"
)

var ErrEmptyTable = errors.New("no header row")

const byteOrderMark = "\ufeff"

// DetermineDelimiter returns the most likely delimiter of the CSV-like data
// in r. Only comma, tab, semicolon and pipe are considered, in that order of
// preference; anything else falls back to comma.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	found := make(map[string]bool)
	for _, candidate := range d.DetectDelimiter(r, '"') {
		found[candidate] = true
	}

	for _, delimiter := range []string{",", "\t", ";", "|"} {
		if found[delimiter] {
			return rune(delimiter[0])
		}
	}

	return ','
}

// ReadCSV reads a table with a header row, keyed by the index columns.
// Index columns may appear anywhere in the header; the remaining columns keep
// their order.
func ReadCSV(r io.Reader, index []string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = DetermineDelimiter(bytes.NewReader(data))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	} else if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	indexPositions := make([]int, len(index))
	isIndex := make(map[int]bool, len(index))
	for i, name := range index {
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingKeyColumn, name)
		}
		indexPositions[i] = pos
		isIndex[pos] = true
	}

	var columns []string
	var columnPositions []int
	for i, name := range header {
		if isIndex[i] {
			continue
		}
		columns = append(columns, name)
		columnPositions = append(columnPositions, i)
	}

	table := NewTable(index, columns)
	keyValues := make([]string, len(index))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		for i, pos := range indexPositions {
			keyValues[i] = record[pos]
		}
		values := make([]string, len(columnPositions))
		for i, pos := range columnPositions {
			values[i] = record[pos]
		}

		if err := table.Append(NewKey(keyValues...), values); err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return table, nil
}

// ReadCSVFile reads a table from path. Files ending in .gz are decompressed.
// Every failure is an errs.ErrInput.
func ReadCSVFile(path string, index []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", errs.ErrInput, path, err)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			slog.Warn("closing input", "path", path, "err", err)
		}
	}()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		reader, err = gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: starting gzip reader stream for %q: %w", errs.ErrInput, path, err)
		}
	}

	table, err := ReadCSV(reader, index)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", errs.ErrInput, path, err)
	}

	slog.Debug("read table", "path", path, "rows", table.Len(), "columns", len(table.Columns))
	return table, nil
}

// WriteCSV writes the header (index columns first) and every row.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(t.Index)+len(t.Columns))
	header = append(header, t.Index...)
	header = append(header, t.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, key := range t.keys {
		copy(record, key.Values())
		copy(record[len(t.Index):], t.rows[key])
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FileMode is the permission of files written by WriteCSVFile and
// ReplaceFile.
const FileMode os.FileMode = 0o644

// ReplaceFile moves the finished temporary file at tmpPath to path, making
// it readable by everyone first.
func ReplaceFile(tmpPath, path string) error {
	err := os.Chmod(tmpPath, FileMode)
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// WriteCSVFile writes the table to path. The table is written to a temporary
// file beside path and renamed into place, so path is never left partially
// written.
func WriteCSVFile(path string, t *Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file for %q: %w", path, err)
	}
	tmpPath := tmp.Name()

	err = WriteCSV(tmp, t)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ReplaceFile(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %q: %w", path, err)
	}

	return nil
}
