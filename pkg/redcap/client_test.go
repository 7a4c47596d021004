package redcap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

const exportCSV = "study_id,redcap_event_name,visit_date,mri_missing\n" +
	"NCANDA_S00001,1y_visit_arm_1,2014-01-02,0\n" +
	"NCANDA_S00002,1y_visit_arm_1,2014-02-03,1\n"

// newServer answers every request with status and body, recording the form of
// the last request.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values, *atomic.Int32) {
	t.Helper()

	var form url.Values
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("got method %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		form = r.PostForm

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &form, &hits
}

func TestExportRecords(t *testing.T) {
	server, form, _ := newServer(t, http.StatusOK, exportCSV)
	client := NewClient(server.URL, "secret", Options{})

	table, err := client.ExportRecords(context.Background(), ExportRequest{
		Fields: []string{"study_id", "visit_date"},
		Forms:  []string{"mr_session_report"},
		Events: []string{"1y_visit_arm_1"},
	})
	require.NoError(t, err)

	require.Equal(t, RecordIndex, table.Index)
	require.Equal(t, []string{"visit_date", "mri_missing"}, table.Columns)
	require.Equal(t, 2, table.Len())

	missing, ok := table.Value(tables.NewKey("NCANDA_S00002", "1y_visit_arm_1"), "mri_missing")
	require.True(t, ok)
	require.Equal(t, "1", missing)

	want := url.Values{
		"token":             {"secret"},
		"content":           {"record"},
		"format":            {"csv"},
		"type":              {"flat"},
		"rawOrLabel":        {"raw"},
		"rawOrLabelHeaders": {"raw"},
		"returnFormat":      {"json"},
		"fields[0]":         {"study_id"},
		"fields[1]":         {"visit_date"},
		"forms[0]":          {"mr_session_report"},
		"events[0]":         {"1y_visit_arm_1"},
	}
	if diff := cmp.Diff(want, *form); diff != "" {
		t.Errorf("form (-want +got):\n%s", diff)
	}
}

func TestExportRecordsEmpty(t *testing.T) {
	server, _, _ := newServer(t, http.StatusOK, "\n")
	client := NewClient(server.URL, "secret", Options{})

	table, err := client.ExportRecords(context.Background(), ExportRequest{})
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
	require.Equal(t, RecordIndex, table.Index)
}

func TestExportRecordsErrors(t *testing.T) {
	tcs := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "api error",
			status:  http.StatusForbidden,
			body:    `{"error":"You do not have permissions to use the API"}`,
			message: "You do not have permissions to use the API",
		},
		{
			name:    "plain error",
			status:  http.StatusInternalServerError,
			body:    "database unavailable",
			message: "database unavailable",
		},
		{
			name:    "missing key column",
			status:  http.StatusOK,
			body:    "visit_date\n2014-01-02\n",
			message: "study_id",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			server, _, _ := newServer(t, tc.status, tc.body)
			client := NewClient(server.URL, "secret", Options{})

			_, err := client.ExportRecords(context.Background(), ExportRequest{})
			require.ErrorIs(t, err, errs.ErrRemote)
			require.ErrorContains(t, err, tc.message)
		})
	}
}

func TestExportRecordsCancelled(t *testing.T) {
	server, _, _ := newServer(t, http.StatusOK, exportCSV)
	client := NewClient(server.URL, "secret", Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ExportRecords(ctx, ExportRequest{})
	require.ErrorIs(t, err, errs.ErrRemote)
}

func TestNewClientFromTokenFile(t *testing.T) {
	server, form, hits := newServer(t, http.StatusOK, exportCSV)
	dir := t.TempDir()

	_, err := NewClientFromTokenFile(server.URL, filepath.Join(dir, "absent"), Options{})
	require.ErrorIs(t, err, errs.ErrConfig)
	require.Equal(t, int32(0), hits.Load())

	tokenPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("  abc123\nignored\n"), 0o600))

	client, err := NewClientFromTokenFile(server.URL, tokenPath, Options{})
	require.NoError(t, err)

	_, err = client.ExportRecords(context.Background(), ExportRequest{})
	require.NoError(t, err)
	require.Equal(t, "abc123", form.Get("token"))
}

func TestReadTokenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o600))

	_, err := ReadToken(path)
	require.ErrorIs(t, err, errs.ErrConfig)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	for _, tc := range []struct {
		in, want string
	}{
		{"~", home},
		{"~/.server_config/token", filepath.Join(home, ".server_config", "token")},
		{"/etc/token", "/etc/token"},
		{"relative/~/token", "relative/~/token"},
	} {
		got, err := ExpandHome(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
