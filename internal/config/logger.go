package config

import (
	"io"

	"github.com/sirupsen/logrus"
)

// defaultLogger returns a logger that discards everything.
// This is the default logger used when none is provided.
func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
