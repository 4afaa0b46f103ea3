package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. format is "json" or "text"; an unknown
// level falls back to info with a warning.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stderr)
}

func NewWithOutput(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if level == "" {
		level = "info"
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	return log
}

// WithRun tags entries with a simulation run ID.
func WithRun(log logrus.FieldLogger, runID string) logrus.FieldLogger {
	return log.WithField("run_id", runID)
}
