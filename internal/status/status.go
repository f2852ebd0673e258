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

// Package status defines the kernel error taxonomy consumed by the fdio
// core and the pure translation from that taxonomy to POSIX errno.
//
// The kernel itself is out of scope for this repository; this package
// only names the status kinds a transport or kernel call can return and
// maps them the way a real fdio layer would.
package status

import "golang.org/x/sys/unix"

// Status is a kernel-level result code, analogous to mx_status_t.
type Status int

// The kernel status kinds. Values are arbitrary and private to this
// module; only Errno() values are meant to cross the POSIX boundary.
const (
	OK Status = iota
	ErrNotFound
	ErrNoMemory
	ErrInvalidArgs
	ErrBufferTooSmall
	ErrTimedOut
	ErrAlreadyExists
	ErrRemoteClosed
	ErrBadPath
	ErrIO
	ErrNotADir
	ErrNotSupported
	ErrOutOfRange
	ErrNoResources
	ErrBadHandle
	ErrAccessDenied
	ErrShouldWait
	ErrFileTooBig
	ErrNoSpace
	ErrUnavailable // mapped to EBUSY; used when unbind races a live dup or in-flight op
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrNoMemory:
		return "NO_MEMORY"
	case ErrInvalidArgs:
		return "INVALID_ARGS"
	case ErrBufferTooSmall:
		return "BUFFER_TOO_SMALL"
	case ErrTimedOut:
		return "TIMED_OUT"
	case ErrAlreadyExists:
		return "ALREADY_EXISTS"
	case ErrRemoteClosed:
		return "REMOTE_CLOSED"
	case ErrBadPath:
		return "BAD_PATH"
	case ErrIO:
		return "IO"
	case ErrNotADir:
		return "NOT_A_DIR"
	case ErrNotSupported:
		return "NOT_SUPPORTED"
	case ErrOutOfRange:
		return "OUT_OF_RANGE"
	case ErrNoResources:
		return "NO_RESOURCES"
	case ErrBadHandle:
		return "BAD_HANDLE"
	case ErrAccessDenied:
		return "ACCESS_DENIED"
	case ErrShouldWait:
		return "SHOULD_WAIT"
	case ErrFileTooBig:
		return "FILE_TOO_BIG"
	case ErrNoSpace:
		return "NO_SPACE"
	case ErrUnavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Errno is a kernel Status wrapped as a Go error carrying the POSIX errno
// it translates to. Every error fdio's public surface returns wraps one
// (reachable with errors.As).
type Errno struct {
	St Status
	No unix.Errno
}

func (e *Errno) Error() string {
	return e.No.Error()
}

// Is allows errors.Is(err, unix.EAGAIN) to work against an *Errno.
func (e *Errno) Is(target error) bool {
	no, ok := target.(unix.Errno)
	return ok && no == e.No
}

// New builds an *Errno for the given kernel Status, with the canonical
// errno the table below assigns it.
func New(st Status) *Errno {
	return &Errno{St: st, No: toErrno(st)}
}

// toErrno is the pure status -> errno translation. ErrShouldWait is
// handled by callers before it would ever reach here in most call paths,
// but still maps to EAGAIN for callers that surface it directly (e.g. a
// NONBLOCK transport's read()).
func toErrno(st Status) unix.Errno {
	switch st {
	case OK:
		return 0
	case ErrNotFound:
		return unix.ENOENT
	case ErrNoMemory:
		return unix.ENOMEM
	case ErrInvalidArgs:
		return unix.EINVAL
	case ErrBufferTooSmall:
		return unix.ENOBUFS
	case ErrTimedOut:
		return unix.ETIMEDOUT
	case ErrAlreadyExists:
		return unix.EEXIST
	case ErrRemoteClosed:
		return unix.EPIPE
	case ErrBadPath:
		return unix.ENOENT
	case ErrIO:
		return unix.EIO
	case ErrNotADir:
		return unix.ENOTDIR
	case ErrNotSupported:
		return unix.ENOTSUP
	case ErrOutOfRange:
		return unix.ERANGE
	case ErrNoResources:
		return unix.ENOMEM
	case ErrBadHandle:
		return unix.EBADF
	case ErrAccessDenied:
		return unix.EACCES
	case ErrShouldWait:
		return unix.EAGAIN
	case ErrFileTooBig:
		return unix.EFBIG
	case ErrNoSpace:
		return unix.ENOSPC
	case ErrUnavailable:
		return unix.EBUSY
	default:
		return unix.EIO
	}
}

// Retn converts a POSIX "return -1 and set errno" pair into the (int,
// error) shape the rest of the core uses internally.
func Retn(n int, err error) (int, error) {
	if err != nil {
		return -1, err
	}
	return n, nil
}

// ShouldWait reports whether err is the retry-later sentinel
// (ErrShouldWait is the sole "retry later" signal a transport returns).
func ShouldWait(err error) bool {
	e, ok := err.(*Errno)
	return ok && e.St == ErrShouldWait
}

// EBADF is a convenience constructor used throughout the fd table and the
// POSIX surface for the single most common error.
func EBADF() *Errno { return New(ErrBadHandle) }

// EINVAL is the convenience constructor for invalid-argument failures.
func EINVAL() *Errno { return New(ErrInvalidArgs) }

// EMFILE reports per-process table exhaustion. The table never reports
// ENFILE: there is no separate system-wide limit in this design.
func EMFILE() *Errno { return &Errno{St: ErrNoResources, No: unix.EMFILE} }

// EAGAIN is returned by the blocking-emulation retry loop when a NONBLOCK
// transport has no data/space.
func EAGAIN() *Errno { return New(ErrShouldWait) }

// EBUSY is the "another operation is in flight" / "still dup'd" signal
// used by unbind.
func EBUSY() *Errno { return New(ErrUnavailable) }
