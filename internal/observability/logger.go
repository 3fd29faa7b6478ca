package observability

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures run logging.
type Options struct {
	// Path enables rotating file logging in addition to stdout.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger returns a logger writing to stdout, and to a size-rotated file
// when a path is configured.
func NewLogger(opts Options) *log.Logger {
	var w io.Writer = os.Stdout
	if opts.Path != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}
	return log.New(w, "", log.LstdFlags|log.LUTC)
}
