// Package mri reports on MRI session entries in the data entry project for
// a list of subjects.
package mri

import (
	"fmt"
	"slices"
	"strings"

	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/redcap"
)

const (
	EventBaseline = "baseline_visit_arm_1"
	EventYear1    = "1y_visit_arm_1"

	DefaultEvent = EventYear1
)

// Events are the visits a report can be run for.
var Events = []string{EventBaseline, EventYear1}

var (
	DefaultFields = []string{
		"study_id", "redcap_event_name", "exclude", "visit_ignore",
		"visit_date", "mri_missing", "mri_xnat_sid", "mri_series_t1",
		"mri_series_t2",
	}

	DefaultForms = []string{"mr_session_report", "visit_date", "demographics"}
)

// Config selects the project and the data a report exports. It is read from
// the reports config file.
type Config struct {
	URL                string   `json:"redcapUrl"`
	TokenPath          string   `json:"tokenPath"`
	InsecureSkipVerify bool     `json:"insecureSkipVerify"`
	Fields             []string `json:"fields"`
	Forms              []string `json:"forms"`
}

func DefaultConfig() Config {
	return Config{
		URL:       redcap.DefaultURL,
		TokenPath: redcap.DefaultTokenPath,
		Fields:    slices.Clone(DefaultFields),
		Forms:     slices.Clone(DefaultForms),
	}
}

func ValidateEvent(event string) error {
	if !slices.Contains(Events, event) {
		return fmt.Errorf("%w: event must be one of [%s], not %q", errs.ErrInput, strings.Join(Events, "|"), event)
	}
	return nil
}
