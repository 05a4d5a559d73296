// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides the small structured-logging facade consumed by
// the reader. It mirrors the shape the teacher repository imported from
// github.com/saferwall/pe/log, reconstructed here since that subpackage
// is not part of this module.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int8

// Severity levels, lowest to highest.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the textual representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Logger is the minimal structured logger every component depends on.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes log lines to an io.Writer.
type stdLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewStdLogger returns a Logger writing to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w, now: time.Now}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.w, "%s %s", l.now().UTC().Format(time.RFC3339), level)
	for i := 0; i < len(keyvals); i += 2 {
		var v interface{}
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		fmt.Fprintf(l.w, " %v=%v", keyvals[i], v)
	}
	fmt.Fprintln(l.w)
	return nil
}

// FilterOption configures a filtering Logger.
type FilterOption func(*filter)

// FilterLevel sets the minimum level that passes the filter.
func FilterLevel(level Level) FilterOption {
	return func(f *filter) { f.level = level }
}

type filter struct {
	Logger
	level Level
}

// NewFilter wraps logger, dropping entries below the configured level.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filter{Logger: logger, level: LevelInfo}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.Logger.Log(level, keyvals...)
}

// Helper adds leveled, printf-style convenience methods over a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with printf-style convenience methods.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, a ...interface{}) {
	_ = h.logger.Log(level, "msg", fmt.Sprint(a...))
}

func (h *Helper) logf(level Level, format string, a ...interface{}) {
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, a...))
}

// Debug logs at LevelDebug.
func (h *Helper) Debug(a ...interface{}) { h.log(LevelDebug, a...) }

// Debugf logs at LevelDebug with a format string.
func (h *Helper) Debugf(format string, a ...interface{}) { h.logf(LevelDebug, format, a...) }

// Info logs at LevelInfo.
func (h *Helper) Info(a ...interface{}) { h.log(LevelInfo, a...) }

// Infof logs at LevelInfo with a format string.
func (h *Helper) Infof(format string, a ...interface{}) { h.logf(LevelInfo, format, a...) }

// Warn logs at LevelWarn.
func (h *Helper) Warn(a ...interface{}) { h.log(LevelWarn, a...) }

// Warnf logs at LevelWarn with a format string.
func (h *Helper) Warnf(format string, a ...interface{}) { h.logf(LevelWarn, format, a...) }

// Error logs at LevelError.
func (h *Helper) Error(a ...interface{}) { h.log(LevelError, a...) }

// Errorf logs at LevelError with a format string.
func (h *Helper) Errorf(format string, a ...interface{}) { h.logf(LevelError, format, a...) }

// DefaultLogger is a filtered stdout logger at LevelError, the default
// used when Options.Logger is nil.
func DefaultLogger() Logger {
	return NewFilter(NewStdLogger(os.Stdout), FilterLevel(LevelError))
}
