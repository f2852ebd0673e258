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

// Package fdtable implements the process-wide file-descriptor table and
// its reference/dup-counting discipline: bind, unbind, lookup, and dup,
// all guarded by a single table mutex.
//
// The locking and invariant-checking style follows a single InvariantMutex
// guarding the table (here, a fixed-size array) plus a checkInvariants
// closure asserting cross-field consistency across every occupied slot.
package fdtable

import (
	"fmt"

	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
	"github.com/jacobsa/syncutil"
)

// MaxFD is the per-process table size.
const MaxFD = 1024

// Table is the fixed-size fd -> transport map. The zero Table is not
// usable; construct with New.
type Table struct {
	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	slots [MaxFD]transport.Transport
}

// New returns an empty table with invariant checking wired up exactly the
// way fs.fileSystem wires fs.checkInvariants into fs.mu.
func New() *Table {
	t := &Table{}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

// checkInvariants asserts that every occupied slot's transport has
// refcount >= dupcount >= 1, and that dupcount equals the number of slots
// pointing at it (checked globally here since the table is small enough
// to scan).
//
// LOCKS_REQUIRED(t.mu)
func (t *Table) checkInvariants() {
	counts := make(map[transport.Transport]int32)
	for _, tr := range t.slots {
		if tr == nil {
			continue
		}
		counts[tr]++
	}

	for tr, n := range counts {
		hdr := tr.Header()
		if hdr.DupCount() != n {
			panic(fmt.Sprintf("fdtable: dupcount %d does not match %d referencing slots", hdr.DupCount(), n))
		}
		if hdr.RefCount() < int64(hdr.DupCount()) {
			panic(fmt.Sprintf("fdtable: refcount %d < dupcount %d", hdr.RefCount(), hdr.DupCount()))
		}
		if hdr.DupCount() < 1 {
			panic("fdtable: reachable transport has dupcount < 1")
		}
	}
}

// deferredClose is the token Bind returns so that callers close the
// evicted transport after releasing the table lock, structurally
// enforcing "close outside the lock".
type deferredClose struct {
	tr transport.Transport
}

// Run closes the evicted transport, if any. Safe to call on a zero value.
func (d deferredClose) Run() error {
	if d.tr == nil {
		return nil
	}
	return d.tr.Close()
}

// Bind places tr at fd. If fd < 0, the first empty slot at or after
// startingFd is used; otherwise fd is used directly. The caller
// must already hold a reference to tr (Bind does not call tr.Header().Ref()
// — see Dup for the reference-acquiring wrapper used by callers that
// don't already hold one).
//
// LOCKS_EXCLUDED(t.mu) internally: t.mu is held only for the table
// mutation; the returned deferredClose must be Run() by the caller after
// unlocking.
func (t *Table) Bind(tr transport.Transport, fd int, startingFd int) (boundFd int, dc deferredClose, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 {
		fd = -1
		for i := startingFd; i < MaxFD; i++ {
			if t.slots[i] == nil {
				fd = i
				break
			}
		}
		if fd < 0 {
			return 0, deferredClose{}, status.EMFILE()
		}
	} else if fd >= MaxFD {
		return 0, deferredClose{}, status.EBADF()
	}

	old := t.slots[fd]
	t.slots[fd] = tr
	tr.Header().IncDup()

	if old != nil {
		old.Header().DecDup()
		if old.Header().Release() {
			dc = deferredClose{tr: old}
		}
	}

	return fd, dc, nil
}

// Unbind clears the slot and hands back the transport with a single
// reference, failing EBUSY if it is still dup'd elsewhere or another
// operation is in flight. This is for exclusive-ownership callers that
// need the transport back uncontended (e.g. unwinding a failed Pipe
// bind). close(2) must succeed on a dup'd fd, so Close uses Remove
// instead.
func (t *Table) Unbind(fd int) (transport.Transport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= MaxFD {
		return nil, status.EINVAL()
	}
	tr := t.slots[fd]
	if tr == nil {
		return nil, status.EINVAL()
	}

	hdr := tr.Header()
	if hdr.DupCount() > 1 || hdr.RefCount() > 1 {
		return nil, status.EBUSY()
	}

	t.slots[fd] = nil
	hdr.DecDup()
	return tr, nil
}

// Remove clears fd unconditionally, the dup-aware counterpart to Unbind:
// it drops exactly the one reference this slot held (DecDup) regardless
// of how many other slots or callers still hold a reference to the same
// transport, and hands the transport back for the caller to Release
// (closing it if that was the last reference). This is what close(2)
// needs: closing one of several dup'd fds must always succeed and must
// never disturb the others.
func (t *Table) Remove(fd int) (transport.Transport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= MaxFD {
		return nil, status.EBADF()
	}
	tr := t.slots[fd]
	if tr == nil {
		return nil, status.EBADF()
	}

	t.slots[fd] = nil
	tr.Header().DecDup()
	return tr, nil
}

// Lookup returns a referenced transport for fd, or nil if the slot is
// empty. Callers must call Release when done.
func (t *Table) Lookup(fd int) transport.Transport {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= MaxFD {
		return nil
	}
	tr := t.slots[fd]
	if tr == nil {
		return nil
	}
	tr.Header().Ref()
	return tr
}

// Release drops a reference acquired via Lookup/Dup/open, closing the
// transport if it was the last one.
func Release(tr transport.Transport) error {
	if tr == nil {
		return nil
	}
	if tr.Header().Release() {
		return tr.Close()
	}
	return nil
}

// Dup looks up oldFd then binds the same transport under a new slot. On
// bind failure the extra reference taken by Lookup is released.
func (t *Table) Dup(oldFd, newFd, startingFd int) (boundFd int, err error) {
	tr := t.Lookup(oldFd)
	if tr == nil {
		return -1, status.EBADF()
	}

	boundFd, dc, err := t.Bind(tr, newFd, startingFd)
	if err != nil {
		Release(tr)
		return -1, err
	}

	if cerr := dc.Run(); cerr != nil {
		return boundFd, cerr
	}
	return boundFd, nil
}

// Get is a read-only peek used by invariant checks and diagnostics; it does
// not take a reference.
func (t *Table) Get(fd int) transport.Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fd < 0 || fd >= MaxFD {
		return nil
	}
	return t.slots[fd]
}

// DrainAll is the process-exit hook: under the table lock, walk every
// slot, decrement each transport's dupcount, and close those that fall to
// zero. Errors from individual closes are collected but do not stop the
// drain.
func (t *Table) DrainAll() []error {
	var toClose []transport.Transport

	t.mu.Lock()
	seen := make(map[transport.Transport]bool)
	for i := range t.slots {
		tr := t.slots[i]
		if tr == nil {
			continue
		}
		t.slots[i] = nil
		if seen[tr] {
			continue
		}
		seen[tr] = true
	}
	for tr := range seen {
		dup := tr.Header().DupCount()
		for i := int32(0); i < dup; i++ {
			tr.Header().DecDup()
			if tr.Header().Release() {
				toClose = append(toClose, tr)
			}
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, tr := range toClose {
		if err := tr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
