package mri

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/redcap"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

const records = "study_id,redcap_event_name,mri_missing\n" +
	"NCANDA_S00001,1y_visit_arm_1,0\n" +
	"NCANDA_S00002,1y_visit_arm_1,1\n" +
	"NCANDA_S00003,1y_visit_arm_1,0\n" +
	"NCANDA_S00003,baseline_visit_arm_1,0\n"

type fakeExporter struct {
	table *tables.Table
	err   error

	requests []redcap.ExportRequest
}

func (f *fakeExporter) ExportRecords(_ context.Context, req redcap.ExportRequest) (*tables.Table, error) {
	f.requests = append(f.requests, req)
	return f.table, f.err
}

func readRecords(t *testing.T) *tables.Table {
	t.Helper()
	table, err := tables.ReadCSV(strings.NewReader(records), redcap.RecordIndex)
	require.NoError(t, err)
	return table
}

func studyIDs(t *tables.Table) []string {
	var ids []string
	for _, key := range t.Keys() {
		ids = append(ids, key.Values()[0]+"/"+key.Values()[1])
	}
	return ids
}

func TestFilter(t *testing.T) {
	table := readRecords(t)

	got := Filter(table, []Subject{
		{StudyID: "NCANDA_S00003"},
		{StudyID: "NCANDA_S00001", Event: EventYear1},
		{StudyID: "NCANDA_S00002", Event: EventBaseline},
		{StudyID: "NCANDA_S99999"},
	})

	want := []string{
		"NCANDA_S00001/1y_visit_arm_1",
		"NCANDA_S00003/1y_visit_arm_1",
		"NCANDA_S00003/baseline_visit_arm_1",
	}
	if diff := cmp.Diff(want, studyIDs(got)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	require.Equal(t, table.Columns, got.Columns)
}

func TestFilterKeepsAtMostMatchingRows(t *testing.T) {
	table := readRecords(t)
	subjects := []Subject{
		{StudyID: "NCANDA_S00001", Event: EventYear1},
		{StudyID: "NCANDA_S00002", Event: EventYear1},
	}

	got := Filter(table, subjects)
	require.LessOrEqual(t, got.Len(), min(table.Len(), len(subjects)))
	require.Equal(t, 2, got.Len())
}

func TestReport(t *testing.T) {
	exporter := &fakeExporter{table: readRecords(t)}
	cfg := DefaultConfig()

	got, err := Report(context.Background(), exporter, cfg, EventYear1, []Subject{{StudyID: "NCANDA_S00002", Event: EventYear1}})
	require.NoError(t, err)
	require.Equal(t, []string{"NCANDA_S00002/1y_visit_arm_1"}, studyIDs(got))

	require.Len(t, exporter.requests, 1)
	want := redcap.ExportRequest{
		Fields: DefaultFields,
		Forms:  DefaultForms,
		Events: []string{EventYear1},
	}
	if diff := cmp.Diff(want, exporter.requests[0]); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}
}

func TestReportInvalidEvent(t *testing.T) {
	exporter := &fakeExporter{table: readRecords(t)}

	_, err := Report(context.Background(), exporter, DefaultConfig(), "2y_visit_arm_1", []Subject{{StudyID: "NCANDA_S00001"}})
	require.ErrorIs(t, err, errs.ErrInput)
	require.Empty(t, exporter.requests)
}

func TestReportExportFailure(t *testing.T) {
	failure := errors.New("connection refused")
	exporter := &fakeExporter{err: failure}

	_, err := Report(context.Background(), exporter, DefaultConfig(), EventBaseline, []Subject{{StudyID: "NCANDA_S00001"}})
	require.ErrorIs(t, err, failure)
}
