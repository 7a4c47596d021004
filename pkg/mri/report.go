package mri

import (
	"context"
	"log/slog"

	"github.com/willbeason/ncanda-reports/pkg/redcap"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

// Filter keeps the rows of t whose key matches a subject, in t's order.
// Subjects without a matching row are dropped silently.
func Filter(t *tables.Table, subjects []Subject) *tables.Table {
	full := make(map[tables.Key]bool, len(subjects))
	anyEvent := make(map[string]bool)
	for _, s := range subjects {
		if s.Event == "" {
			anyEvent[s.StudyID] = true
		} else {
			full[tables.NewKey(s.StudyID, s.Event)] = true
		}
	}

	return t.Filter(func(key tables.Key) bool {
		if full[key] {
			return true
		}
		return anyEvent[key.Values()[0]]
	})
}

// Report exports the configured fields and forms for event and keeps the
// rows of the listed subjects.
func Report(ctx context.Context, exporter redcap.Exporter, cfg Config, event string, subjects []Subject) (*tables.Table, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}

	records, err := exporter.ExportRecords(ctx, redcap.ExportRequest{
		Fields: cfg.Fields,
		Forms:  cfg.Forms,
		Events: []string{event},
	})
	if err != nil {
		return nil, err
	}

	filtered := Filter(records, subjects)
	slog.InfoContext(ctx, "filtered records",
		"event", event,
		"exported", records.Len(),
		"subjects", len(subjects),
		"kept", filtered.Len())

	return filtered, nil
}
