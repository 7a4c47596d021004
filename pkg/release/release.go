// Package release merges the per-instrument summaries of a data release into
// one wide table.
package release

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"github.com/willbeason/ncanda-reports/pkg/errs"
	"github.com/willbeason/ncanda-reports/pkg/race"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

const (
	DefaultDirectory    = "/fs/ncanda-share/releases/NCANDA_DATA_00019/summaries"
	DefaultDemographics = "demographics.csv"
	DefaultOutput       = "np_release.csv"
)

var (
	// DefaultIndex is the key every summary is indexed by.
	DefaultIndex = []string{"subject", "arm", "visit"}

	DefaultInstruments = []string{
		"ataxia.csv", "cddr.csv", "clinical.csv", "cnp.csv", "dd100.csv",
		"dd1000.csv", "grooved_pegboard.csv", "ishihara.csv",
		"landoltc.csv", "rey-o.csv", "wais4.csv", "wrat4.csv",
	}
)

// Config locates the release summaries and the merged output.
type Config struct {
	Directory    string   `json:"directory"`
	Demographics string   `json:"demographics"`
	Instruments  []string `json:"instruments"`
	Index        []string `json:"index"`
	RaceColumn   string   `json:"raceColumn"`
	Output       string   `json:"output"`
}

func DefaultConfig() Config {
	return Config{
		Directory:    DefaultDirectory,
		Demographics: DefaultDemographics,
		Instruments:  slices.Clone(DefaultInstruments),
		Index:        slices.Clone(DefaultIndex),
		RaceColumn:   race.Column,
		Output:       DefaultOutput,
	}
}

func (c Config) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Directory, name)
}

// Merge reads the demographics summary, adds the race indicators, and outer
// joins each instrument summary in order. progress may be nil.
func Merge(cfg Config, progress *mpb.Progress) (*tables.Table, error) {
	merged, err := tables.ReadCSVFile(cfg.path(cfg.Demographics), cfg.Index)
	if err != nil {
		return nil, err
	}
	slog.Info("read demographics", "rows", merged.Len(), "columns", len(merged.Columns))

	err = race.AddIndicators(merged, cfg.RaceColumn, race.Categories)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Demographics, err)
	}

	var bar *mpb.Bar
	if progress != nil && len(cfg.Instruments) > 0 {
		bar = progress.AddBar(int64(len(cfg.Instruments)),
			mpb.PrependDecorators(decor.Name("instruments")),
			mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
			mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
			mpb.BarRemoveOnComplete())
	}
	start := time.Now()

	for _, name := range cfg.Instruments {
		instrument, err := tables.ReadCSVFile(cfg.path(name), cfg.Index)
		if err != nil {
			return nil, err
		}

		merged, err = tables.OuterJoin(merged, instrument)
		if err != nil {
			return nil, fmt.Errorf("%w: joining %q: %w", errs.ErrInput, name, err)
		}
		slog.Info("merged instrument",
			"file", name,
			"rows", instrument.Len(),
			"columns", len(instrument.Columns),
			"total_rows", merged.Len())

		if bar != nil {
			bar.IncrBy(1, time.Since(start))
		}
	}

	return merged, nil
}
