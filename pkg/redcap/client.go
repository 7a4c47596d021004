// Package redcap exports records from a REDCap project through its API.
package redcap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

const DefaultURL = "https://ncanda.sri.com/redcap/api/"

// RecordIndex is the key of a longitudinal REDCap export: the record id and
// the event the row belongs to.
var RecordIndex = []string{"study_id", "redcap_event_name"}

// ExportRequest selects records by field, form and event. Empty lists select
// everything.
type ExportRequest struct {
	Fields []string
	Forms  []string
	Events []string
}

// Exporter fetches records matching the request as a table.
type Exporter interface {
	ExportRecords(ctx context.Context, req ExportRequest) (*tables.Table, error)
}

type Options struct {
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Index names the key columns of exported tables. Defaults to RecordIndex.
	Index []string
}

type Client struct {
	http  *resty.Client
	url   string
	token string
	index []string
}

var _ Exporter = (*Client)(nil)

func NewClient(apiURL, token string, opts Options) *Client {
	client := resty.New()
	client.SetHeader("Accept", "text/csv, application/json")
	if opts.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	client.OnAfterResponse(logResponse)

	index := opts.Index
	if len(index) == 0 {
		index = RecordIndex
	}

	return &Client{
		http:  client,
		url:   apiURL,
		token: token,
		index: index,
	}
}

// NewClientFromTokenFile reads the API token before creating the client, so a
// missing credential fails before any request is made.
func NewClientFromTokenFile(apiURL, tokenPath string, opts Options) (*Client, error) {
	token, err := ReadToken(tokenPath)
	if err != nil {
		return nil, err
	}
	return NewClient(apiURL, token, opts), nil
}

func logResponse(_ *resty.Client, res *resty.Response) error {
	slog.DebugContext(res.Request.Context(), "redcap response",
		"status", res.StatusCode(),
		"elapsed", res.Time(),
		"bytes", len(res.Body()))
	return nil
}

func exportForm(token string, req ExportRequest) url.Values {
	form := url.Values{}
	form.Set("token", token)
	form.Set("content", "record")
	form.Set("format", "csv")
	form.Set("type", "flat")
	form.Set("rawOrLabel", "raw")
	form.Set("rawOrLabelHeaders", "raw")
	form.Set("returnFormat", "json")

	addList := func(name string, values []string) {
		for i, v := range values {
			form.Set(fmt.Sprintf("%s[%d]", name, i), v)
		}
	}
	addList("fields", req.Fields)
	addList("forms", req.Forms)
	addList("events", req.Events)

	return form
}

// ExportRecords requests the matching records as flat CSV and reads them into
// a table keyed by the client's index. Every failure is an errs.ErrRemote.
// There is no retry.
func (c *Client) ExportRecords(ctx context.Context, req ExportRequest) (*tables.Table, error) {
	slog.InfoContext(ctx, "exporting records",
		"url", c.url,
		"fields", len(req.Fields),
		"forms", strings.Join(req.Forms, ","),
		"events", strings.Join(req.Events, ","))

	res, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(exportForm(c.token, req)).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: exporting records: %w", errs.ErrRemote, err)
	}

	if res.IsError() {
		return nil, fmt.Errorf("%w: exporting records: %s: %s", errs.ErrRemote, res.Status(), apiError(res.Body()))
	}

	body := res.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		// REDCap answers an export matching no records with an empty body.
		return tables.NewTable(c.index, nil), nil
	}

	table, err := tables.ReadCSV(bytes.NewReader(body), c.index)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed export: %w", errs.ErrRemote, err)
	}

	slog.InfoContext(ctx, "exported records", "rows", table.Len(), "columns", len(table.Columns))
	return table, nil
}

// apiError extracts the message of a REDCap error response, falling back to
// the raw body.
func apiError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
