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

// Package logtransport implements the logger sink transport: a write-only
// transport that forwards each write as a structured log record instead
// of to a file or socket, built on log/slog.
package logtransport

import (
	"context"
	"log/slog"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// Logger is a write-only sink transport. Reads always return EOF (0, nil);
// writes are forwarded to the underlying slog.Logger at the configured
// level, one record per Write call, the way a kernel debuglog handle
// behaves.
type Logger struct {
	hdr   *transport.Header
	log   *slog.Logger
	level slog.Level
	tag   string
}

var _ transport.Transport = (*Logger)(nil)

// New returns a logger transport that emits each write as a record tagged
// with name at the given level.
func New(log *slog.Logger, name string, level slog.Level) *Logger {
	return &Logger{hdr: transport.NewHeader(0), log: log, level: level, tag: name}
}

func (l *Logger) Header() *transport.Header { return l.hdr }

func (l *Logger) Read(buf []byte) (int, error) { return 0, nil }

func (l *Logger) Write(buf []byte) (int, error) {
	l.log.Log(context.Background(), l.level, string(buf), slog.String("sink", l.tag))
	return len(buf), nil
}

func (l *Logger) ReadAt(buf []byte, off int64) (int, error) { return 0, nil }

func (l *Logger) WriteAt(buf []byte, off int64) (int, error) { return l.Write(buf) }

func (l *Logger) Seek(off int64, whence transport.Whence) (int64, error) {
	return 0, status.New(status.ErrNotSupported)
}

func (l *Logger) Open(path string, flags transport.OpenFlags, mode uint32) (transport.Transport, error) {
	return nil, status.New(status.ErrBadHandle)
}

func (l *Logger) Clone() ([]kernel.Handle, error) { return nil, nil }

func (l *Logger) Unwrap() ([]kernel.Handle, error) { return nil, nil }

func (l *Logger) Close() error { return nil }

func (l *Logger) Misc(op transport.MiscOp, arg int64, payload []byte) (interface{}, error) {
	if op == transport.MiscStat {
		return &transport.Stat{Mode: 0200}, nil
	}
	return nil, status.New(status.ErrNotSupported)
}

func (l *Logger) Ioctl(op uint32, in []byte) ([]byte, error) {
	return nil, status.New(status.ErrNotSupported)
}

func (l *Logger) PosixIoctl(op uint32, arg uintptr) error {
	return status.New(status.ErrNotSupported)
}

func (l *Logger) WaitBegin(events transport.PollEvents) (kernel.Handle, kernel.Signals) {
	return kernel.Invalid, 0
}

func (l *Logger) WaitEnd(sig kernel.Signals) transport.PollEvents { return 0 }

func (l *Logger) GetVMO() (kernel.Handle, uint64, uint64, error) {
	return kernel.Invalid, 0, 0, status.New(status.ErrNotSupported)
}
