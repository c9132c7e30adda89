// Package logging builds the component loggers used across yoga.
//
// Every component gets a *log.Logger with a bracketed prefix ("[sync] ",
// "[daemon] ") that writes to stderr and, when a log file is configured, to
// a size-rotated file as well.
package logging

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors the log.* settings.
type Config struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Quiet drops stderr output; the file, if any, still receives logs.
	Quiet bool
}

// Factory hands out loggers sharing one destination.
type Factory struct {
	out  io.Writer
	file *lumberjack.Logger
}

// New opens the destination described by config.
func New(config Config) (*Factory, error) {
	var writers []io.Writer
	if !config.Quiet {
		writers = append(writers, os.Stderr)
	}

	f := &Factory{}
	if config.File != "" {
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return nil, err
		}
		f.file = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   config.Compress,
		}
		writers = append(writers, f.file)
	}

	switch len(writers) {
	case 0:
		f.out = io.Discard
	case 1:
		f.out = writers[0]
	default:
		f.out = io.MultiWriter(writers...)
	}
	return f, nil
}

// Logger returns a logger for component, e.g. Logger("sync").
func (f *Factory) Logger(component string) *log.Logger {
	return log.New(f.out, "["+component+"] ", log.LstdFlags)
}

// Rotate starts a new log file. It is a no-op without a file.
func (f *Factory) Rotate() error {
	if f.file == nil {
		return nil
	}
	return f.file.Rotate()
}

// RotateOn rotates the log file each time a value arrives on sig, until ctx
// is done. Long-running commands feed it SIGHUP so external log management
// can cut the file.
func (f *Factory) RotateOn(ctx context.Context, sig <-chan os.Signal) {
	logger := f.Logger("logging")
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := f.Rotate(); err != nil {
				logger.Printf("Failed to rotate log file: %v", err)
				continue
			}
			if f.file != nil {
				logger.Printf("Rotated log file %s", f.file.Filename)
			}
		}
	}
}

// Close releases the log file.
func (f *Factory) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}
