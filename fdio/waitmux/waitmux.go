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

// Package waitmux implements poll(2) and select(2) as transport-agnostic
// multiplexed waiters built on Transport.WaitBegin/WaitEnd plus the
// kernel's wait_many primitive. Neither POSIX call understands a specific
// transport; both only ever deal in (handle, signal-mask) pairs.
package waitmux

import (
	"time"

	"github.com/donball360/magenta/internal/fdtable"
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/metrics"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// PollFD mirrors struct pollfd.
type PollFD struct {
	FD      int
	Events  transport.PollEvents
	Revents transport.PollEvents
}

// Poll implements poll(2): entries with FD < 0 are left alone; a failed
// lookup sets POLLNVAL; otherwise wait_begin is called and the resulting
// handle/signal pair is waited on in one batch. timeoutMs < 0 blocks
// forever.
func Poll(tab *fdtable.Table, ops kernel.Ops, fds []PollFD, timeoutMs int64) (int, error) {
	metrics.PollCalls.Inc()
	return pollImpl(tab, ops, fds, timeoutMs)
}

// FDSet is a minimal fd_set analogue: a set of file descriptors bounded
// by FDSetSize.
type FDSet map[int]bool

// FDSetSize mirrors POSIX FD_SETSIZE.
const FDSetSize = 1024

// Select implements select(2) as the fd_set projection of Poll: compute
// the event bitmap per fd from its set membership, run one wait-many,
// then clear bits that did not arrive. A nil set is ignored.
func Select(tab *fdtable.Table, ops kernel.Ops, n int, rfds, wfds, efds FDSet, timeoutMs int64) (int, error) {
	if n > FDSetSize {
		return -1, status.EINVAL()
	}

	var fds []PollFD
	index := make(map[int]int)
	for fd := 0; fd < n; fd++ {
		var ev transport.PollEvents
		if rfds != nil && rfds[fd] {
			ev |= transport.POLLIN
		}
		if wfds != nil && wfds[fd] {
			ev |= transport.POLLOUT
		}
		if efds != nil && efds[fd] {
			ev |= transport.POLLERR
		}
		if ev == 0 {
			continue
		}
		index[fd] = len(fds)
		fds = append(fds, PollFD{FD: fd, Events: ev})
	}

	metrics.SelectCalls.Inc()
	count, err := pollImpl(tab, ops, fds, timeoutMs)
	if err != nil {
		return -1, err
	}

	if rfds != nil {
		for fd := range rfds {
			if i, ok := index[fd]; ok {
				rfds[fd] = fds[i].Revents&transport.POLLIN != 0
			} else {
				rfds[fd] = false
			}
		}
	}
	if wfds != nil {
		for fd := range wfds {
			if i, ok := index[fd]; ok {
				wfds[fd] = fds[i].Revents&transport.POLLOUT != 0
			} else {
				wfds[fd] = false
			}
		}
	}
	if efds != nil {
		for fd := range efds {
			if i, ok := index[fd]; ok {
				efds[fd] = fds[i].Revents&transport.POLLERR != 0
			} else {
				efds[fd] = false
			}
		}
	}
	return count, nil
}

// pollImpl is the shared algorithm behind Poll and Select: entries with
// FD < 0 are left alone; a failed lookup sets POLLNVAL (itself a
// "non-zero result"); everything else is batched into one wait_many call
// and translated back via wait_end.
func pollImpl(tab *fdtable.Table, ops kernel.Ops, fds []PollFD, timeoutMs int64) (int, error) {
	type entry struct {
		idx int
		tr  transport.Transport
	}
	var items []kernel.WaitItem
	var entries []entry
	count := 0

	for i := range fds {
		fds[i].Revents = 0
		if fds[i].FD < 0 {
			continue
		}
		tr := tab.Lookup(fds[i].FD)
		if tr == nil {
			fds[i].Revents = transport.POLLNVAL
			count++
			continue
		}
		h, sig := tr.WaitBegin(fds[i].Events)
		if h == kernel.Invalid {
			fdtable.Release(tr)
			return -1, status.EINVAL()
		}
		items = append(items, kernel.WaitItem{Handle: h, WaitFor: sig})
		entries = append(entries, entry{idx: i, tr: tr})
	}

	timeout := time.Duration(-1)
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	if len(items) > 0 {
		if err := ops.WaitMany(items, timeout); err != nil && err != kernel.ErrTimedOut {
			for _, e := range entries {
				fdtable.Release(e.tr)
			}
			return -1, status.New(status.ErrIO)
		}
	}

	for i, e := range entries {
		ev := e.tr.WaitEnd(items[i].Pending)
		ev &= fds[e.idx].Events | transport.POLLHUP | transport.POLLERR
		fds[e.idx].Revents = ev
		if ev != 0 {
			count++
		}
		fdtable.Release(e.tr)
	}
	return count, nil
}
