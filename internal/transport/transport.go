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

// Package transport defines the polymorphic I/O vtable every fdio
// transport implements and the refcount/dupcount header every transport
// carries.
//
// The interface here is deliberately narrow: a Transport is asked to do
// one non-blocking unit of work per call. Blocking emulation, path
// resolution, and dup/close bookkeeping all live one layer up, in
// internal/fdtable and package fdio.
package transport

import (
	"sync/atomic"
	"time"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
)

// Flags is the per-transport bitset: NONBLOCK plus the descriptor-flag
// field visible to F_GETFD/F_SETFD.
type Flags uint32

const (
	NONBLOCK Flags = 1 << iota
	CLOEXEC
)

// Whence mirrors lseek(2)'s whence argument.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// MiscOp identifies a typed control message carried over Transport.Misc.
type MiscOp int

const (
	MiscStat MiscOp = iota
	MiscSetAttr
	MiscTruncate
	MiscUnlink
	MiscRename
	MiscLink
	MiscSync
	MiscReadDir
)

// ReadDirCmd distinguishes a readdir continuation from a reset.
type ReadDirCmd int

const (
	ReadDirContinue ReadDirCmd = iota
	ReadDirReset
)

// Stat is the subset of POSIX struct stat the core understands. Transports
// fill this out in response to MiscStat.
type Stat struct {
	Ino    uint64
	Mode   uint32
	Size   int64
	Nlink  uint32
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	IsDir  bool
	IsLink bool
}

// Dirent is one entry returned from a MiscReadDir call.
type Dirent struct {
	Name string
	Ino  uint64
	Type uint8 // DT_* style type tag
}

// OpenFlags mirrors the open(2)/openat(2) flag bits the core recognizes.
type OpenFlags uint32

const (
	OCreat OpenFlags = 1 << iota
	OExcl
	ODirectory
	ONonblock
	ORdonly
	OWronly
	ORdwr
	OTrunc
	OAppend
)

// Transport is the vtable every fdio I/O object implements. All
// data-moving operations are non-blocking: ErrShouldWait is the sole
// "retry later" signal, surfaced as a *status.Errno whose St field is
// status.ErrShouldWait.
type Transport interface {
	// Header exposes the refcount/dupcount/flags bookkeeping.
	Header() *Header

	// Read performs a non-blocking stream read.
	Read(buf []byte) (n int, err error)
	// Write performs a non-blocking stream write.
	Write(buf []byte) (n int, err error)
	// ReadAt/WriteAt are the positional variants.
	ReadAt(buf []byte, off int64) (n int, err error)
	WriteAt(buf []byte, off int64) (n int, err error)
	// Seek repositions a seekable transport; non-seekable transports
	// return status.ErrNotSupported.
	Seek(off int64, whence Whence) (newPos int64, err error)

	// Open is valid only on directory-like transports; it resolves path
	// relative to this transport and returns a new transport for it.
	Open(path string, flags OpenFlags, mode uint32) (Transport, error)

	// Clone produces kernel handles for transfer to another process
	// without destroying this transport.
	Clone() (handles []kernel.Handle, err error)
	// Unwrap is like Clone but destroys this transport's local state,
	// handing exclusive ownership of the underlying handles to the
	// caller.
	Unwrap() (handles []kernel.Handle, err error)

	// Close is idempotent resource release.
	Close() error

	// Misc carries a typed control message. reply is operation-specific
	// (e.g. a *Stat for MiscStat, a []Dirent for MiscReadDir).
	Misc(op MiscOp, arg int64, payload []byte) (reply interface{}, err error)

	// Ioctl and PosixIoctl are the device-level and POSIX ioctl surfaces.
	Ioctl(op uint32, in []byte) (out []byte, err error)
	PosixIoctl(op uint32, arg uintptr) error

	// WaitBegin produces a kernel handle and the signal mask equivalent to
	// the requested POSIX events. A returned handle of kernel.Invalid means
	// "this transport does not support waiting".
	WaitBegin(events PollEvents) (h kernel.Handle, sig kernel.Signals)
	// WaitEnd reverses WaitBegin's mapping once a wait completes.
	WaitEnd(sig kernel.Signals) (events PollEvents)

	// GetVMO is the optional memory-mapping accessor; most transports
	// return status.ErrNotSupported.
	GetVMO() (h kernel.Handle, off uint64, length uint64, err error)
}

// PollEvents mirrors the POSIX poll(2) event bits the core cares about.
type PollEvents uint32

const (
	POLLIN PollEvents = 1 << iota
	POLLOUT
	POLLERR
	POLLHUP
	POLLNVAL
	POLLPRI
)

// Header is the refcount/dupcount/flags block every concrete transport
// embeds. Per the invariants:
//
//	refcount >= dupcount at all times
//	dupcount is mutated only under the fdtab lock (owned by internal/fdtable)
//	a transport is dropped when refcount reaches zero after a release
//
// Header does not itself enforce the fdtab-lock requirement — it is a
// plain counter block; internal/fdtable is the sole authorized mutator of
// dupcount.
type Header struct {
	refcount int64 // atomic
	dupcount int32 // GUARDED_BY the owning fdtable's lock
	flags    uint32
}

// NewHeader returns a Header with an initial refcount of 1 (the caller's
// own reference) and the given flags.
func NewHeader(flags Flags) *Header {
	return &Header{refcount: 1, flags: uint32(flags)}
}

// Ref increments the refcount and returns the new value. Called whenever a
// caller takes a reference to the transport (fdtable Lookup, and so Dup).
func (h *Header) Ref() int64 {
	return atomic.AddInt64(&h.refcount, 1)
}

// Release decrements the refcount and reports whether it reached zero,
// i.e. whether the caller must now invoke the transport's Close().
func (h *Header) Release() (shouldClose bool) {
	n := atomic.AddInt64(&h.refcount, -1)
	if n < 0 {
		panic("transport: refcount went negative")
	}
	return n == 0
}

// RefCount returns the current refcount for diagnostics/invariant checks.
func (h *Header) RefCount() int64 { return atomic.LoadInt64(&h.refcount) }

// DupCount returns the current dupcount. Callers must hold the owning
// fdtable's lock.
func (h *Header) DupCount() int32 { return h.dupcount }

// IncDup increments dupcount. LOCKS_REQUIRED(fdtable lock).
func (h *Header) IncDup() { h.dupcount++ }

// DecDup decrements dupcount. LOCKS_REQUIRED(fdtable lock).
func (h *Header) DecDup() {
	if h.dupcount == 0 {
		panic("transport: dupcount went negative")
	}
	h.dupcount--
}

// Flags returns the current flag bits.
func (h *Header) Flags() Flags { return Flags(atomic.LoadUint32(&h.flags)) }

// SetNonblock toggles the NONBLOCK bit, used by fcntl(F_SETFL).
func (h *Header) SetNonblock(on bool) {
	for {
		old := atomic.LoadUint32(&h.flags)
		var next uint32
		if on {
			next = old | uint32(NONBLOCK)
		} else {
			next = old &^ uint32(NONBLOCK)
		}
		if atomic.CompareAndSwapUint32(&h.flags, old, next) {
			return
		}
	}
}

// ShouldWaitErr is a convenience for transports implementing Read/Write to
// signal the retry-later sentinel.
func ShouldWaitErr() error { return status.New(status.ErrShouldWait) }
