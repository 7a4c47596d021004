package logutil

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Setup installs a tint logger writing to w as the default slog logger.
// Debug messages are only written when verbose is set. Colors are only used
// when w is a terminal.
func Setup(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})))
}

// LogFlags logs, at debug level, each flag the user set explicitly.
func LogFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		slog.Debug("flag", "name", f.Name, "value", f.Value.String())
	})
}
