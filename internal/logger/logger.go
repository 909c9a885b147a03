// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is the structured logger every other package in this
// module logs through, satisfying the spec's abstract "log(level, msg)" /
// "log_task_status(id, msg)" collaborator (spec.md §6.2) with a concrete
// log/slog-backed implementation.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Severity is one of the five levels the library logs at, ordered least to
// most verbose.
type Severity int

const (
	OFF Severity = iota
	ERROR
	WARNING
	INFO
	DEBUG
	TRACE
)

func (s Severity) String() string {
	switch s {
	case OFF:
		return "OFF"
	case ERROR:
		return "ERROR"
	case WARNING:
		return "WARNING"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a config string ("off", "error", ...) to a Severity.
// Unknown strings default to INFO, matching the teacher's tolerant flag
// parsing style elsewhere in the pack.
func ParseSeverity(s string) Severity {
	switch s {
	case "off", "OFF":
		return OFF
	case "error", "ERROR":
		return ERROR
	case "warning", "WARNING":
		return WARNING
	case "info", "INFO":
		return INFO
	case "debug", "DEBUG":
		return DEBUG
	case "trace", "TRACE":
		return TRACE
	default:
		return INFO
	}
}

func slogLevel(s Severity) slog.Level {
	switch s {
	case TRACE:
		return slog.LevelDebug - 4
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARNING:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

type factory struct {
	mu     sync.Mutex
	format string // "json" or "text"
	level  *slog.LevelVar
	logger *slog.Logger
}

func (f *factory) handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: f.level}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

var defaultFactory = &factory{format: "text", level: new(slog.LevelVar)}

func init() {
	defaultFactory.logger = slog.New(defaultFactory.handler(os.Stderr))
}

// Init (re)configures the package-level logger. format is "json" or "text".
func Init(severity Severity, format string) {
	defaultFactory.mu.Lock()
	defer defaultFactory.mu.Unlock()
	defaultFactory.format = format
	defaultFactory.level.Set(slogLevel(severity))
	defaultFactory.logger = slog.New(defaultFactory.handler(os.Stderr))
}

// SetOutput redirects the default logger's writer; used by tests.
func SetOutput(w io.Writer) {
	defaultFactory.mu.Lock()
	defer defaultFactory.mu.Unlock()
	defaultFactory.logger = slog.New(defaultFactory.handler(w))
}

func log(level slog.Level, format string, args ...any) {
	defaultFactory.mu.Lock()
	l := defaultFactory.logger
	defaultFactory.mu.Unlock()
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...any) { log(slogLevel(TRACE), format, args...) }
func Debugf(format string, args ...any) { log(slogLevel(DEBUG), format, args...) }
func Infof(format string, args ...any)  { log(slogLevel(INFO), format, args...) }
func Warnf(format string, args ...any)  { log(slogLevel(WARNING), format, args...) }
func Errorf(format string, args ...any) { log(slogLevel(ERROR), format, args...) }

// LogTaskStatus satisfies the reporter contract's log_task_status(id, msg):
// a status line correlated to a progress/reporter task id (spec.md §6.2).
func LogTaskStatus(taskID uint64, format string, args ...any) {
	Infof("task %d: %s", taskID, fmt.Sprintf(format, args...))
}
