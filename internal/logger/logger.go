// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init (logrus defaults).
var Log = logrus.New()

// Init sets level and format on Log. LOG_LEVEL and LOG_FORMAT in the
// environment override the given values. Unknown levels fall back to info;
// any format other than "json" is text.
func Init(level, format string, out io.Writer) *logrus.Logger {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		format = v
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)
	return Log
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// Discard returns a logger that writes nowhere, for tests and headless tools.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
