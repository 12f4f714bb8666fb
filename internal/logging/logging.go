// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias for logrus.Fields.
type Fields = logrus.Fields

// Formats accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const timestampFormat = "2006-01-02 15:04:05"

// Config configures the process logger.
type Config struct {
	Level  string
	Format string
	// File, when set, receives a copy of every entry with size based rotation.
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	// Output is the console sink. Nil means os.Stderr.
	Output io.Writer
}

// New creates a logger from config. The returned closer flushes and closes
// the log file, if any.
func New(config Config) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if config.Level != "" {
		var err error
		level, err = logrus.ParseLevel(config.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
			TimestampFormat:        timestampFormat,
		})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (want %s or %s)", config.Format, FormatText, FormatJSON)
	}

	console := config.Output
	if console == nil {
		console = os.Stderr
	}

	if config.File == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	rotate := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, rotate))

	return logger, rotate, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
