package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/willbeason/ncanda-reports/pkg/configutil"
	"github.com/willbeason/ncanda-reports/pkg/logutil"
	"github.com/willbeason/ncanda-reports/pkg/release"
	"github.com/willbeason/ncanda-reports/pkg/tables"
	"golang.org/x/term"
)

const (
	FlagConfig  = "config"
	FlagParquet = "parquet"
	FlagVerbose = "verbose"
)

func main() {
	cmd.Flags().String(FlagConfig, "", "reports config file (json5)")
	cmd.Flags().Bool(FlagParquet, false, "also write the release as parquet beside the CSV")
	cmd.Flags().Bool(FlagVerbose, false, "log debug messages")

	err := cmd.Execute()
	if err != nil {
		if cmd.SilenceErrors {
			slog.Error("np-release failed", "err", err)
		}
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "np-release",
	Short:   "merges the neuropsychological summaries of a release into np_release.csv",
	Args:    cobra.NoArgs,
	Version: "0.1.0",
	RunE:    runE,
}

// fileConfig is the part of the reports config file np-release reads.
type fileConfig struct {
	Release release.Config `json:"release"`
}

func runE(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		return err
	}
	logutil.Setup(os.Stderr, verbose)
	logutil.LogFlags(cmd.Flags())

	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	loaded, err := configutil.Load(configPath, fileConfig{Release: release.DefaultConfig()})
	if err != nil {
		return err
	}
	cfg := loaded.Release

	var progress *mpb.Progress
	if fd := int(os.Stderr.Fd()); term.IsTerminal(fd) {
		width, _, err := term.GetSize(fd)
		if err != nil {
			return err
		}
		progress = mpb.New(mpb.WithWidth(width), mpb.WithOutput(os.Stderr))
	}

	merged, err := release.Merge(cfg, progress)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Wait()
	}

	err = release.WriteCSV(cfg.Output, merged)
	if err != nil {
		return err
	}

	writeParquet, err := cmd.Flags().GetBool(FlagParquet)
	if err != nil {
		return err
	}
	if writeParquet {
		parquetPath := strings.TrimSuffix(cfg.Output, tables.CSVExt) + tables.ParquetExt
		_, err = release.WriteParquet(parquetPath, merged, cfg)
		if err != nil {
			return err
		}
	}

	return nil
}
