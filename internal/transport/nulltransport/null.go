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

// Package nulltransport implements the TTY-less null sink transport
// installed when startup cannot provide a real root, cwd, or stdio donor.
package nulltransport

import (
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// Null is a transport that accepts writes silently, returns EOF-like empty
// reads, answers stat with a bare mode, succeeds with no handles for
// Clone/Unwrap and as a no-op for Close, and fails every other operation
// with ErrNotSupported or ErrBadHandle as appropriate. It is never
// waitable.
type Null struct {
	hdr *transport.Header
}

// New returns a fresh null transport with a single reference.
func New() *Null {
	return &Null{hdr: transport.NewHeader(0)}
}

var _ transport.Transport = (*Null)(nil)

func (n *Null) Header() *transport.Header { return n.hdr }

func (n *Null) Read(buf []byte) (int, error) { return 0, nil }

func (n *Null) Write(buf []byte) (int, error) { return len(buf), nil }

func (n *Null) ReadAt(buf []byte, off int64) (int, error) { return 0, nil }

func (n *Null) WriteAt(buf []byte, off int64) (int, error) { return len(buf), nil }

func (n *Null) Seek(off int64, whence transport.Whence) (int64, error) {
	return 0, status.New(status.ErrNotSupported)
}

func (n *Null) Open(path string, flags transport.OpenFlags, mode uint32) (transport.Transport, error) {
	return nil, status.New(status.ErrBadHandle)
}

func (n *Null) Clone() ([]kernel.Handle, error) { return nil, nil }

func (n *Null) Unwrap() ([]kernel.Handle, error) { return nil, nil }

func (n *Null) Close() error { return nil }

func (n *Null) Misc(op transport.MiscOp, arg int64, payload []byte) (interface{}, error) {
	if op == transport.MiscStat {
		return &transport.Stat{Mode: 0666}, nil
	}
	return nil, status.New(status.ErrNotSupported)
}

func (n *Null) Ioctl(op uint32, in []byte) ([]byte, error) {
	return nil, status.New(status.ErrNotSupported)
}

func (n *Null) PosixIoctl(op uint32, arg uintptr) error {
	return status.New(status.ErrNotSupported)
}

// WaitBegin returns an invalid handle: the null transport never supports
// waiting, so callers translate it to EINVAL.
func (n *Null) WaitBegin(events transport.PollEvents) (kernel.Handle, kernel.Signals) {
	return kernel.Invalid, 0
}

func (n *Null) WaitEnd(sig kernel.Signals) transport.PollEvents { return 0 }

func (n *Null) GetVMO() (kernel.Handle, uint64, uint64, error) {
	return kernel.Invalid, 0, 0, status.New(status.ErrNotSupported)
}
