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

// Package posixflags translates between the fdio core's internal flag
// representations and the real POSIX bit values from golang.org/x/sys/unix,
// so the open(2)/fcntl(2) surface exposes the bits callers actually expect
// rather than an invented numbering.
package posixflags

import (
	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// Fcntl commands the core recognizes; values match unix.F_*.
const (
	FGetFD = unix.F_GETFD
	FSetFD = unix.F_SETFD
	FGetFL = unix.F_GETFL
	FSetFL = unix.F_SETFL
)

// ToOpenFlags maps a raw POSIX open(2) flag word to the core's internal
// transport.OpenFlags bitset.
func ToOpenFlags(raw int) transport.OpenFlags {
	var out transport.OpenFlags
	switch raw & unix.O_ACCMODE {
	case unix.O_RDONLY:
		out |= transport.ORdonly
	case unix.O_WRONLY:
		out |= transport.OWronly
	case unix.O_RDWR:
		out |= transport.ORdwr
	}
	if raw&unix.O_CREAT != 0 {
		out |= transport.OCreat
	}
	if raw&unix.O_EXCL != 0 {
		out |= transport.OExcl
	}
	if raw&unix.O_DIRECTORY != 0 {
		out |= transport.ODirectory
	}
	if raw&unix.O_NONBLOCK != 0 {
		out |= transport.ONonblock
	}
	if raw&unix.O_TRUNC != 0 {
		out |= transport.OTrunc
	}
	if raw&unix.O_APPEND != 0 {
		out |= transport.OAppend
	}
	return out
}

// ValidateDup3Flags implements the dup3 flag-legality check: only
// O_CLOEXEC or 0 are legal, anything else is EINVAL.
func ValidateDup3Flags(raw int) error {
	if raw != 0 && raw != unix.O_CLOEXEC {
		return status.EINVAL()
	}
	return nil
}

// ApplySetFL implements F_SETFL's documented scope: only the NONBLOCK bit
// is ever toggled on the transport's flags; every other bit in raw is
// silently ignored rather than rejected.
func ApplySetFL(hdr *transport.Header, raw int) {
	hdr.SetNonblock(raw&unix.O_NONBLOCK != 0)
}

// GetFL reports the current flag word for F_GETFL: O_NONBLOCK if set, else
// 0. Real fdio layers also report the access-mode bits; this core does not
// track them per-fd beyond open time, so only NONBLOCK round-trips.
func GetFL(hdr *transport.Header) int {
	if hdr.Flags()&transport.NONBLOCK != 0 {
		return unix.O_NONBLOCK
	}
	return 0
}

// ErrNosys is returned for fcntl commands this core never implements
// (F_GETOWN, F_SETOWN, byte-range locks): real ENOSYS, not the generic
// NOT_SUPPORTED status, since callers distinguish the two.
var ErrNosys = &status.Errno{St: status.ErrNotSupported, No: unix.ENOSYS}
