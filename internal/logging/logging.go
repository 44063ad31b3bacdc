// Package logging builds the zerolog logger shared by the CLI and the MCP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Options control where log records go
type Options struct {
	Level   string    // zerolog level name, "info" when empty
	File    string    // rotated log file, none when empty
	Console io.Writer // human-readable output, usually os.Stderr; nil disables it
	NoColor bool
}

// Logger is a zerolog logger plus the resources it owns
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

// New builds a logger writing to the console and/or a rotated file
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})
	}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, rotator)
		l.closer = rotator
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	l.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return l, nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
