// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package logger

import (
	"log"
	"sync/atomic"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type defaultLogger struct {
	prefix string
	debug  *atomic.Bool
}

// New returns a logger writing through the standard log package. Debug lines
// are dropped until SetDebug(true) is called on the returned logger.
func New(prefix string) Logger {
	return &defaultLogger{prefix: prefix, debug: &atomic.Bool{}}
}

// WithPrefix returns a logger sharing l's debug switch with an extra prefix.
func WithPrefix(l Logger, prefix string) Logger {
	if d, ok := l.(*defaultLogger); ok {
		return &defaultLogger{prefix: d.prefix + prefix, debug: d.debug}
	}
	return &prefixed{logger: l, prefix: prefix}
}

// SetDebug toggles debug output for loggers created by New.
func SetDebug(l Logger, enabled bool) {
	if d, ok := l.(*defaultLogger); ok {
		d.debug.Store(enabled)
	}
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	log.Printf("[INFO] "+l.prefix+format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	log.Printf("[ERROR] "+l.prefix+format, args...)
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	if !l.debug.Load() {
		return
	}
	log.Printf("[DEBUG] "+l.prefix+format, args...)
}

type prefixed struct {
	logger Logger
	prefix string
}

func (p *prefixed) Info(format string, args ...interface{}) {
	p.logger.Info(p.prefix+format, args...)
}

func (p *prefixed) Error(format string, args ...interface{}) {
	p.logger.Error(p.prefix+format, args...)
}

func (p *prefixed) Debug(format string, args ...interface{}) {
	p.logger.Debug(p.prefix+format, args...)
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}
