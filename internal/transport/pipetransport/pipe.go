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

// Package pipetransport implements the pipe-pair transport: a factory
// that yields two non-blocking Transport implementations sharing one ring
// buffer. The core's blocking-emulation retry loop is what turns this
// into a blocking pipe(2) from the caller's point of view.
//
// The ring is an unbounded bytes.Buffer-backed queue rather than a
// fixed-size kernel ring, since POSIX-visible blocking behavior is the
// only externally observable contract.
package pipetransport

import (
	"bytes"
	"sync"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

type state struct {
	mu  sync.Mutex
	buf bytes.Buffer

	readClosed  bool
	writeClosed bool

	ops    *kernel.RealOps
	readH  kernel.Handle
	writeH kernel.Handle
}

func (s *state) updateSignalsLocked() {
	var readSig kernel.Signals
	if s.buf.Len() > 0 || s.writeClosed {
		readSig |= kernel.SignalReadable
	}
	if s.readClosed {
		readSig |= kernel.SignalHangup
	}
	s.ops.SetSignals(s.readH, readSig)

	var writeSig kernel.Signals
	if s.readClosed {
		writeSig |= kernel.SignalError | kernel.SignalHangup
	} else {
		// Unbounded buffer: always writable until the reader goes away.
		writeSig |= kernel.SignalWritable
	}
	s.ops.SetSignals(s.writeH, writeSig)
}

// End is one side of a pipe.
type End struct {
	hdr    *transport.Header
	s      *state
	isRead bool
}

var _ transport.Transport = (*End)(nil)

// New constructs a connected pipe pair: New()[0] is the read end,
// New()[1] is the write end, mirroring pipe(2)'s fd ordering.
func New(ops *kernel.RealOps) (read, write *End) {
	s := &state{ops: ops}
	s.readH = ops.NewHandle()
	s.writeH = ops.NewHandle()

	read = &End{hdr: transport.NewHeader(0), s: s, isRead: true}
	write = &End{hdr: transport.NewHeader(0), s: s, isRead: false}

	s.mu.Lock()
	s.updateSignalsLocked()
	s.mu.Unlock()

	return read, write
}

func (e *End) Header() *transport.Header { return e.hdr }

func (e *End) Read(buf []byte) (int, error) {
	if !e.isRead {
		return 0, status.New(status.ErrNotSupported)
	}
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() == 0 {
		if s.writeClosed {
			return 0, nil // EOF
		}
		return 0, transport.ShouldWaitErr()
	}
	n, _ := s.buf.Read(buf)
	s.updateSignalsLocked()
	return n, nil
}

func (e *End) Write(buf []byte) (int, error) {
	if e.isRead {
		return 0, status.New(status.ErrNotSupported)
	}
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readClosed {
		return 0, status.New(status.ErrRemoteClosed)
	}
	n, _ := s.buf.Write(buf)
	s.updateSignalsLocked()
	return n, nil
}

func (e *End) ReadAt(buf []byte, off int64) (int, error) {
	return 0, status.New(status.ErrNotSupported)
}

func (e *End) WriteAt(buf []byte, off int64) (int, error) {
	return 0, status.New(status.ErrNotSupported)
}

func (e *End) Seek(off int64, whence transport.Whence) (int64, error) {
	return 0, status.New(status.ErrNotSupported)
}

func (e *End) Open(path string, flags transport.OpenFlags, mode uint32) (transport.Transport, error) {
	return nil, status.New(status.ErrNotSupported)
}

func (e *End) Clone() ([]kernel.Handle, error) { return nil, status.New(status.ErrNotSupported) }

func (e *End) Unwrap() ([]kernel.Handle, error) { return nil, status.New(status.ErrNotSupported) }

func (e *End) Close() error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.isRead {
		s.readClosed = true
	} else {
		s.writeClosed = true
	}
	s.updateSignalsLocked()
	return nil
}

func (e *End) Misc(op transport.MiscOp, arg int64, payload []byte) (interface{}, error) {
	if op == transport.MiscStat {
		return &transport.Stat{Mode: 0600}, nil
	}
	return nil, status.New(status.ErrNotSupported)
}

func (e *End) Ioctl(op uint32, in []byte) ([]byte, error) {
	return nil, status.New(status.ErrNotSupported)
}

func (e *End) PosixIoctl(op uint32, arg uintptr) error {
	return status.New(status.ErrNotSupported)
}

func (e *End) WaitBegin(events transport.PollEvents) (kernel.Handle, kernel.Signals) {
	s := e.s
	var want kernel.Signals
	if events&transport.POLLIN != 0 {
		want |= kernel.SignalReadable | kernel.SignalHangup
	}
	if events&transport.POLLOUT != 0 {
		want |= kernel.SignalWritable | kernel.SignalError
	}
	if e.isRead {
		return s.readH, want
	}
	return s.writeH, want
}

func (e *End) WaitEnd(sig kernel.Signals) transport.PollEvents {
	var ev transport.PollEvents
	if sig&kernel.SignalReadable != 0 {
		ev |= transport.POLLIN
	}
	if sig&kernel.SignalWritable != 0 {
		ev |= transport.POLLOUT
	}
	if sig&kernel.SignalHangup != 0 {
		ev |= transport.POLLHUP
	}
	if sig&kernel.SignalError != 0 {
		ev |= transport.POLLERR
	}
	return ev
}

func (e *End) GetVMO() (kernel.Handle, uint64, uint64, error) {
	return kernel.Invalid, 0, 0, status.New(status.ErrNotSupported)
}
