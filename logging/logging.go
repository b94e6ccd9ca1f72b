// Package logging builds the process-wide structured logger, the way
// services/secureAlgo_service.go's initLogger configures logrus for the
// teacher's secure encryption service.
package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger with a JSON formatter and a level parsed
// from levelName (falling back to Info on a bad value). When path is
// non-empty the logger appends to that file instead of stderr;
// otherwise (or when the file cannot be opened) it writes to stderr.
func New(levelName, path string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			logger.WithError(err).Warn("failed to create log directory, logging to stderr only")
			return logger
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("failed to open log file, logging to stderr only")
			return logger
		}
		logger.SetOutput(file)
	}

	return logger
}

// Component returns a logger entry tagged with the owning subsystem, the
// convention every package in this module uses instead of passing the
// bare *logrus.Logger around.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
