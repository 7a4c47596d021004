package main

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"github.com/willbeason/bondsmith"
	"github.com/willbeason/ncanda-reports/pkg/columns"
	"github.com/willbeason/ncanda-reports/pkg/release"
	"github.com/willbeason/ncanda-reports/pkg/tables"
	"golang.org/x/term"
)

const (
	FlagOut   = "out"
	FlagIndex = "index"
)

func main() {
	cmd.Flags().String(FlagOut, "", "output file path (default: stdout)")
	cmd.Flags().StringSlice(FlagIndex, release.DefaultIndex, "key columns of the summaries")

	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "csv-stats FILE...",
	Short:   "Collect statistics about the columns of release summary CSVs",
	Args:    cobra.MinimumNArgs(1),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrCSVStats = errors.New("getting CSV statistics")

func runE(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	index, err := cmd.Flags().GetStringSlice(FlagIndex)
	if err != nil {
		return err
	}

	outPath, err := cmd.Flags().GetString(FlagOut)
	if err != nil {
		return err
	}

	outFile := os.Stdout
	if outPath != "" {
		outFile, err = os.Create(outPath)
		if err != nil {
			return fmt.Errorf("%w: creating %q: %w", ErrCSVStats, outPath, err)
		}
		defer func() {
			err := outFile.Close()
			if err != nil {
				fmt.Println(err)
			}
		}()
	}

	var p *mpb.Progress
	if fd := int(os.Stderr.Fd()); term.IsTerminal(fd) {
		width, _, err := term.GetSize(fd)
		if err != nil {
			return fmt.Errorf("%w: getting terminal size: %w", ErrCSVStats, err)
		}
		p = mpb.New(mpb.WithWidth(width), mpb.WithOutput(os.Stderr))
	}

	for _, inPath := range args {
		fields, table, err := processCSVFile(p, inPath, index)
		if err != nil {
			return err
		}

		err = writeStats(outFile, inPath, table, fields)
		if err != nil {
			return err
		}
	}

	if p != nil {
		p.Wait()
	}
	return nil
}

func processCSVFile(p *mpb.Progress, inPath string, index []string) ([]columns.Field, *tables.Table, error) {
	file, err := os.Open(inPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening %q: %w", ErrCSVStats, inPath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: getting stat for %q: %w", ErrCSVStats, inPath, err)
	}

	var bar *mpb.Bar
	if p != nil && stat.Size() > 0 {
		bar = p.AddBar(stat.Size(),
			mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
			mpb.PrependDecorators(decor.Name(filepath.Base(inPath))),
			mpb.BarRemoveOnComplete(),
		)
	}

	countReader := bondsmith.NewCountReader(file)
	var reader io.Reader = countReader
	if strings.HasSuffix(inPath, ".gz") {
		reader, err = gzip.NewReader(countReader)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: starting gzip reader stream for %q: %w", ErrCSVStats, inPath, err)
		}
	}

	start := time.Now()
	table, err := tables.ReadCSV(reader, index)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %q: %w", ErrCSVStats, inPath, err)
	}
	if bar != nil {
		bar.IncrBy(int(countReader.Count()), time.Since(start))
	}

	return columns.Profile(table), table, nil
}

// writeStats prints one "column;summary" line per column, sorted by column
// name, after a header naming the file and its row count.
func writeStats(w io.Writer, inPath string, table *tables.Table, fields []columns.Field) error {
	_, err := fmt.Fprintf(w, "# %s;rows:%d\n", inPath, table.Len())
	if err != nil {
		return err
	}

	order := make([]int, len(fields))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return table.Columns[order[i]] < table.Columns[order[j]]
	})

	for _, i := range order {
		_, err = fmt.Fprintf(w, "%s;%s\n", table.Columns[i], fields[i])
		if err != nil {
			return err
		}
	}

	return nil
}
