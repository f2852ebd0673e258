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

// Package dirstream implements the opendir/readdir/rewinddir/closedir
// iterator built on top of a directory transport's MiscReadDir control
// message. One Stream serializes access to a single directory fd via its
// own mutex: each open directory handle guards its own entries cache
// rather than sharing a filesystem-wide lock.
package dirstream

import (
	"sync"

	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// ScratchSize is the per-stream buffer capacity: entries are fetched from
// the transport in batches of up to this many and served out one at a
// time until exhausted.
const ScratchSize = 4096

// Stream is a single directory iterator bound to one fd's transport.
type Stream struct {
	fd int
	tr transport.Transport

	mu     sync.Mutex
	buf    []transport.Dirent // GUARDED_BY(mu)
	cursor int                // GUARDED_BY(mu)
	reset  bool               // GUARDED_BY(mu)
}

// Open wraps tr (already opened with O_DIRECTORY) as a fresh iterator
// positioned at the start of the directory.
func Open(fd int, tr transport.Transport) *Stream {
	return &Stream{fd: fd, tr: tr, reset: true}
}

// FD returns the backing file descriptor, for dirfd().
func (s *Stream) FD() int { return s.fd }

// Next returns the next directory entry, or (Dirent{}, false, nil) at
// end of stream. It refills from the transport in ScratchSize-sized
// batches, issuing a reset or continue readdir command depending on
// whether Rewind was called since the last refill.
func (s *Stream) Next() (transport.Dirent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.buf) {
		if err := s.refillLocked(); err != nil {
			return transport.Dirent{}, false, err
		}
		if len(s.buf) == 0 {
			return transport.Dirent{}, false, nil
		}
	}

	d := s.buf[s.cursor]
	s.cursor++
	return d, true, nil
}

// LOCKS_REQUIRED(s.mu)
func (s *Stream) refillLocked() error {
	cmd := transport.ReadDirContinue
	if s.reset {
		cmd = transport.ReadDirReset
	}
	s.reset = false

	reply, err := s.tr.Misc(transport.MiscReadDir, int64(cmd), nil)
	if err != nil {
		return err
	}
	entries, ok := reply.([]transport.Dirent)
	if !ok {
		return status.New(status.ErrIO)
	}
	if len(entries) > ScratchSize {
		entries = entries[:ScratchSize]
	}
	s.buf = entries
	s.cursor = 0
	return nil
}

// Rewind marks the cursor for reset without issuing I/O; the next Next
// call will request a fresh listing from the start.
func (s *Stream) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset = true
	s.buf = nil
	s.cursor = 0
}

// Close drops the iterator's buffered entries. It does not touch the
// backing transport: the caller is responsible for unbinding fd from the
// fd table separately; Close here only tears down the iterator's own state.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	return nil
}
