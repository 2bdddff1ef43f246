// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05,000"

// Setup applies the level and output file to logger. When the log file cannot
// be opened the logger keeps writing to stderr and the open error is returned
// so the caller can report it. The returned closer is never nil.
func Setup(logger *logrus.Logger, level, file string, debug bool) (io.Closer, error) {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableColors:   true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)

	if file == "" {
		logger.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	f, openErr := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		logger.SetOutput(os.Stderr)
		return nopCloser{}, openErr
	}
	logger.SetOutput(f)
	return f, nil
}

// Component returns a logger scoped to one component
func Component(logger logrus.FieldLogger, name string) logrus.FieldLogger {
	return logger.WithField("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
