// Copyright 2026 The Magenta Authors.
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

// Package obslog provides the process-wide structured logger the fdio
// core uses for diagnostic and error-path logging, grounded on the
// teacher's current logging facade (log/slog, replacing the legacy
// internal/logger *log.Logger wrapper). Call Op from any call site
// that wants to log a POSIX operation outcome; it standardizes the
// op/fd/error attribute names so log consumers can filter consistently.
package obslog

import (
	"context"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// SetLogger replaces the process-wide logger, used by cmd/fdioctl to wire
// a differently-configured handler (e.g. text output for a terminal).
func SetLogger(l *slog.Logger) { logger = l }

// Logger returns the current process-wide logger.
func Logger() *slog.Logger { return logger }

// Op logs the outcome of one POSIX call: the syscall name, the
// descriptor involved (-1 if none), and the resulting status (nil on
// success).
func Op(name string, fd int, err error) {
	attrs := []any{slog.String("op", name), slog.Int("fd", fd)}
	if err != nil {
		logger.LogAttrs(context.Background(), slog.LevelWarn, "fdio call failed",
			slog.String("op", name), slog.Int("fd", fd), slog.String("error", err.Error()))
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "fdio call", attrs...)
}
