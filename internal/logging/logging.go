// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Log is the process wide logger, replaced by Init.
var Log = NewLogger("info", "json", os.Stderr)

// Init replaces the global logger with one for the given level and format.
func Init(level, format string) {
	Log = NewLogger(level, format, os.Stderr)
}

// NewLogger builds a logrus logger.
// format is "json", "text" or "auto" (text on a terminal, json otherwise).
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	var log = logrus.New()

	log.SetFormatter(formatterFor(format, out))
	log.SetOutput(out)

	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(logrus.TraceLevel)
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

func formatterFor(format string, out io.Writer) logrus.Formatter {
	switch strings.ToLower(format) {
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}
	case "auto":
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return &logrus.TextFormatter{FullTimestamp: true}
		}
		return &logrus.JSONFormatter{}
	default:
		return &logrus.JSONFormatter{}
	}
}
