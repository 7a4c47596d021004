package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/willbeason/ncanda-reports/pkg/configutil"
	"github.com/willbeason/ncanda-reports/pkg/logutil"
	"github.com/willbeason/ncanda-reports/pkg/mri"
	"github.com/willbeason/ncanda-reports/pkg/redcap"
	"github.com/willbeason/ncanda-reports/pkg/tables"
)

const (
	FlagVisit   = "visit"
	FlagConfig  = "config"
	FlagOut     = "out"
	FlagVerbose = "verbose"
)

func main() {
	cmd.Flags().StringP(FlagVisit, "v", mri.DefaultEvent, "visit to report on ["+strings.Join(mri.Events, "|")+"]")
	cmd.Flags().String(FlagConfig, "", "reports config file (json5)")
	cmd.Flags().String(FlagOut, "", "write the filtered records to this CSV file")
	cmd.Flags().Bool(FlagVerbose, false, "log debug messages")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if cmd.SilenceErrors {
			slog.Error("missing-mri failed", "err", err)
		}
		stop()
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "missing-mri [--visit EVENT] SUBJECTS_CSV",
	Short:   "filters the MRI session entries of a visit down to a list of subjects",
	Args:    cobra.ExactArgs(1),
	Version: "0.1.0",
	RunE:    runE,
}

func runE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		return err
	}
	logutil.Setup(os.Stderr, verbose)
	logutil.LogFlags(cmd.Flags())

	event, err := cmd.Flags().GetString(FlagVisit)
	if err != nil {
		return err
	}
	err = mri.ValidateEvent(event)
	if err != nil {
		return err
	}

	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	cfg, err := configutil.Load(configPath, mri.DefaultConfig())
	if err != nil {
		return err
	}

	client, err := redcap.NewClientFromTokenFile(cfg.URL, cfg.TokenPath, redcap.Options{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return err
	}

	subjects, err := mri.LoadSubjects(args[0])
	if err != nil {
		return err
	}

	filtered, err := mri.Report(ctx, client, cfg, event, subjects)
	if err != nil {
		return err
	}

	outPath, err := cmd.Flags().GetString(FlagOut)
	if err != nil {
		return err
	}
	if outPath == "" {
		return nil
	}

	err = tables.WriteCSVFile(outPath, filtered)
	if err != nil {
		return fmt.Errorf("writing filtered records: %w", err)
	}
	slog.Info("wrote filtered records", "path", outPath, "rows", filtered.Len())

	return nil
}
