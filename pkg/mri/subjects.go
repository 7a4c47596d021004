package mri

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/willbeason/ncanda-reports/pkg/errs"
)

var (
	ErrNoSubjects = errors.New("no subjects")
	ErrSubjectRow = errors.New("subject rows hold a study id and an optional event")
)

const (
	subjectColumns = 2
	byteOrderMark  = "\ufeff"
)

// Subject identifies rows to keep. An empty Event matches every event of
// the subject.
type Subject struct {
	StudyID string `csv:"study_id"`
	Event   string `csv:"redcap_event_name"`
}

// recordReader hands already-validated records to gocsv.
type recordReader struct {
	records [][]string
}

func (r *recordReader) Read() ([]string, error) {
	if len(r.records) == 0 {
		return nil, io.EOF
	}
	record := r.records[0]
	r.records = r.records[1:]
	return record, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	records := r.records
	r.records = nil
	return records, nil
}

// ReadSubjects reads a headerless list of subjects, one per row, as
// study_id[,redcap_event_name]. A leading header row naming study_id is
// skipped.
func ReadSubjects(r io.Reader) ([]Subject, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], byteOrderMark)
		if records[0][0] == "study_id" {
			records = records[1:]
		}
	}
	for i, record := range records {
		if len(record) > subjectColumns || record[0] == "" {
			return nil, fmt.Errorf("%w: row %d is %q", ErrSubjectRow, i+1, record)
		}
	}
	if len(records) == 0 {
		return nil, ErrNoSubjects
	}

	var subjects []Subject
	err = gocsv.UnmarshalCSVWithoutHeaders(&recordReader{records: records}, &subjects)
	if err != nil {
		return nil, err
	}

	return subjects, nil
}

// LoadSubjects reads the subject list at path. Every failure is an
// errs.ErrInput.
func LoadSubjects(path string) ([]Subject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening subject list: %w", errs.ErrInput, err)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			slog.Warn("closing subject list", "path", path, "err", err)
		}
	}()

	subjects, err := ReadSubjects(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading subject list %q: %w", errs.ErrInput, path, err)
	}

	slog.Info("loaded subjects", "path", path, "subjects", len(subjects))
	return subjects, nil
}
