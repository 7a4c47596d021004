package logutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup(&buf, false)
	slog.Debug("hidden")
	slog.Info("shown", "rows", 3)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "INF shown rows=3")

	buf.Reset()
	Setup(&buf, true)
	slog.Debug("visible")
	require.Contains(t, buf.String(), "DBG visible")
}

func TestLogFlags(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup(&buf, true)

	flags := pflag.NewFlagSet("missing-mri", pflag.ContinueOnError)
	flags.String("visit", "1y_visit_arm_1", "")
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--visit", "baseline_visit_arm_1"}))

	LogFlags(flags)
	require.Contains(t, buf.String(), "name=visit value=baseline_visit_arm_1")
	require.NotContains(t, buf.String(), "name=config")
}
