package release

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/google/uuid"
	"github.com/willbeason/ncanda-reports/pkg/columns"
	"github.com/willbeason/ncanda-reports/pkg/race"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

// WriteCSV writes the merged table to path.
func WriteCSV(path string, t *tables.Table) error {
	err := tables.WriteCSVFile(path, t)
	if err != nil {
		return err
	}

	slog.Info("wrote release", "path", path, "rows", t.Len(), "columns", len(t.Index)+len(t.Columns))
	return nil
}

// ParquetTypes profiles the merged table to pick a type per column. Race
// indicators are booleans.
func ParquetTypes(t *tables.Table) []arrow.DataType {
	types := columns.ArrowTypes(columns.Profile(t))
	for i, name := range t.Columns {
		if race.IsIndicator(name, race.Categories) {
			types[i] = arrow.FixedWidthTypes.Boolean
		}
	}
	return types
}

// WriteParquet writes the merged table to path as parquet. The schema
// records the release directory and a run id.
func WriteParquet(path string, t *tables.Table, cfg Config) (string, error) {
	runID := uuid.New().String()
	metadata := tables.NewMetadataBuilder().
		AddComment("NP release merged from "+cfg.Directory).
		Add("release_directory", cfg.Directory).
		Add("run_id", runID).
		BuildReference()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temporary file for %q: %w", path, err)
	}
	tmpPath := tmp.Name()

	// The parquet writer closes tmp.
	err = tables.WriteParquet(tmp, t, ParquetTypes(t), metadata)
	if err == nil {
		err = tables.ReplaceFile(tmpPath, path)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing %q: %w", path, err)
	}

	slog.Info("wrote parquet release", "path", path, "run_id", runID)
	return runID, nil
}
