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

// Package kernel names the downward interface the fdio core consumes from
// the capability microkernel: object_wait_one, object_wait_many,
// handle_close, and time_get. The kernel's own implementation of these
// calls is out of scope for this repository; this package defines only
// the narrow surface the core dispatches to, plus a reference in-process
// implementation (backed by Go channels standing in for kernel handles)
// used by the bundled transports and by tests.
package kernel

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is an opaque kernel-object identifier, owned by whichever
// transport created it. The zero Handle is invalid.
type Handle uint32

// Invalid is the sentinel returned by wait_begin when a transport does not
// support waiting at all; callers translate it to EINVAL.
const Invalid Handle = 0

// Signals is the bit-field of kernel-level readiness conditions a handle
// can report.
type Signals uint32

const (
	SignalReadable Signals = 1 << iota
	SignalWritable
	SignalClosed
	SignalHangup
	SignalError
)

// WaitItem is one entry of an object_wait_many batch.
type WaitItem struct {
	Handle  Handle
	WaitFor Signals
	Pending Signals
}

// Ops is the set of kernel object calls the core depends on. It exists so
// that the core can be exercised without a real microkernel underneath:
// a narrow, swappable downward dependency rather than a direct syscall.
type Ops interface {
	// WaitOne blocks until handle reports one of waitFor's signals or the
	// timeout elapses (zero handle is never a valid argument). A timeout of
	// -1 blocks forever.
	WaitOne(h Handle, waitFor Signals, timeout time.Duration) (pending Signals, err error)

	// WaitMany blocks on a batch the way object_wait_many does, filling
	// each item's Pending field and returning once at least one fires or
	// the timeout elapses.
	WaitMany(items []WaitItem, timeout time.Duration) error

	// Close tears down a handle. Idempotent at the Ops level is not
	// guaranteed; callers (transport close()) are responsible for calling
	// it at most once per handle.
	Close(h Handle) error

	// Now is the wall-clock source for utimens.
	Now() time.Time
}

// registry backs the reference Ops implementation: handles are just keys
// into a table of channel-based signal sources. Real deployments replace
// this package's default Ops with bindings over the actual syscalls
// (object_wait_one, object_wait_many, handle_close); nothing above this
// package depends on the in-process nature of the reference implementation.
type registry struct {
	mu      sync.Mutex
	sources map[Handle]*source
}

type source struct {
	// changed is closed and replaced every time Set is called, so that
	// blocked waiters wake up and re-check Pending().
	mu      sync.Mutex
	current Signals
	changed chan struct{}
}

func newSource() *source {
	return &source{changed: make(chan struct{})}
}

func (s *source) Set(sig Signals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == sig {
		return
	}
	s.current = sig
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *source) Snapshot() (Signals, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.changed
}

// RealOps is the reference Ops implementation used by bundled transports.
type RealOps struct {
	reg registry
}

// NewRealOps constructs a fresh handle registry.
func NewRealOps() *RealOps {
	return &RealOps{reg: registry{sources: make(map[Handle]*source)}}
}

// NewHandle allocates a fresh Handle with an initially-empty signal state.
// Transports call this when they are constructed and hand the handle out
// from wait_begin.
func (o *RealOps) NewHandle() Handle {
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()

	h := Handle(uuid.New().ID())
	if h == Invalid {
		h = Handle(1)
	}
	for {
		if _, exists := o.reg.sources[h]; !exists {
			break
		}
		h++
		if h == Invalid {
			h++
		}
	}
	o.reg.sources[h] = newSource()
	return h
}

// SetSignals updates the readiness bits visible to waiters on h. Transports
// call this whenever their underlying state changes (data arrives, peer
// closes, etc).
func (o *RealOps) SetSignals(h Handle, sig Signals) {
	o.reg.mu.Lock()
	s, ok := o.reg.sources[h]
	o.reg.mu.Unlock()
	if !ok {
		return
	}
	s.Set(sig)
}

func (o *RealOps) get(h Handle) (*source, bool) {
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()
	s, ok := o.reg.sources[h]
	return s, ok
}

// WaitOne implements Ops.
func (o *RealOps) WaitOne(h Handle, waitFor Signals, timeout time.Duration) (Signals, error) {
	items := []WaitItem{{Handle: h, WaitFor: waitFor}}
	if err := o.WaitMany(items, timeout); err != nil {
		return 0, err
	}
	return items[0].Pending, nil
}

// WaitMany implements Ops.
func (o *RealOps) WaitMany(items []WaitItem, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		anyFired := false
		changedChans := make([]<-chan struct{}, 0, len(items))

		for i := range items {
			s, ok := o.get(items[i].Handle)
			if !ok {
				items[i].Pending = SignalError
				anyFired = true
				continue
			}
			cur, changed := s.Snapshot()
			items[i].Pending = cur & items[i].WaitFor
			if items[i].Pending != 0 {
				anyFired = true
			}
			changedChans = append(changedChans, changed)
		}

		if anyFired {
			return nil
		}

		if timeout == 0 {
			return ErrTimedOut
		}

		// Wait for any source to change, or the deadline.
		woke := make(chan struct{}, 1)
		for _, ch := range changedChans {
			go func(ch <-chan struct{}) {
				<-ch
				select {
				case woke <- struct{}{}:
				default:
				}
			}(ch)
		}

		select {
		case <-woke:
		case <-deadline:
			return ErrTimedOut
		}
	}
}

// Close implements Ops.
func (o *RealOps) Close(h Handle) error {
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()
	delete(o.reg.sources, h)
	return nil
}

// Now implements Ops.
func (o *RealOps) Now() time.Time { return time.Now() }

// ErrTimedOut is returned by WaitOne/WaitMany when the timeout elapses
// without any requested signal firing; callers treat it as success with
// whatever signals are pending (zero-ready in poll/select).
var ErrTimedOut = timedOutError{}

type timedOutError struct{}

func (timedOutError) Error() string { return "kernel: timed out" }
