package telemetry

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

func newSlogHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  debug,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// InitSlog installs the default logger, debug turns on debug level
// records and source locations.
func InitSlog(debug bool) {
	slog.SetDefault(slog.New(newSlogHandler(os.Stderr, debug)))
}
