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

// Package startup consumes a process's startup handle table and produces
// a ready-to-use fdio.Core. It is the only place that knows how the
// (handle, info-word) pairs a process is launched with map onto fd table
// slots, the root/cwd transports, and stdio.
package startup

import (
	"github.com/donball360/magenta/fdio"
	"github.com/donball360/magenta/internal/cwd"
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/transport"
	"github.com/donball360/magenta/internal/transport/nulltransport"
)

// TypeTag identifies what a startup handle is for.
type TypeTag uint32

const (
	TagRoot TypeTag = iota
	TagCwd
	TagRemote
	TagPipe
	TagLogger
)

const (
	fdMask         = 0x3FF // fd occupies the low 10 bits, [0, MaxFD)
	useForStdioBit = 1 << 10
	tagShift       = 16
)

// MakeInfo packs a type tag, target fd, and USE_FOR_STDIO flag into the
// info-word format Decode expects. It exists mainly so tests and process
// launchers can build entries without hand-computing bit positions.
func MakeInfo(tag TypeTag, fd int, useForStdio bool) uint32 {
	info := uint32(tag)<<tagShift | uint32(fd)&fdMask
	if useForStdio {
		info |= useForStdioBit
	}
	return info
}

// Decode splits an info-word into its type tag, target fd, and
// USE_FOR_STDIO flag.
func Decode(info uint32) (tag TypeTag, fd int, useForStdio bool) {
	tag = TypeTag(info >> tagShift)
	fd = int(info & fdMask)
	useForStdio = info&useForStdioBit != 0
	return
}

// Entry is one startup handle descriptor: a transport already constructed
// for the handle it represents, paired with the info-word that says what
// it's for. Building the transport from a raw kernel handle is a
// backend concern (remoteio, pipetransport, logtransport all do it
// differently); Build only deals in the decoded result.
type Entry struct {
	Info uint32
	Tr   transport.Transport
}

type pendingFD struct {
	fd          int
	tr          transport.Transport
	useForStdio bool
}

// Build consumes entries and returns a fully wired Core: ROOT and CWD
// entries install the root and cwd transports (a missing root becomes a
// null transport; a missing cwd is opened as "." from the root, and
// becomes a null transport only if that open fails); REMOTE,
// PIPE, and LOGGER entries bind into the fd table at their designated fd.
// A REMOTE entry immediately followed by another entry with the identical
// info-word is a handle pair (object plus companion event handle); the
// second entry is consumed without allocating a second fd, since both
// handles back the same transport. Any entry whose USE_FOR_STDIO bit is
// set makes its transport the stdio donor: once all explicit binds are
// done, any of fds 0, 1, 2 still empty is filled by duping the donor in,
// or by a null transport if no donor was supplied. cwdPath seeds the
// textual cwd (e.g. from the PWD environment variable); it has no effect
// on which transport backs the cwd.
func Build(entries []Entry, ops kernel.Ops, cwdPath string) (*fdio.Core, error) {
	var root, cwdTr transport.Transport
	var pendings []pendingFD

	for i := 0; i < len(entries); i++ {
		tag, fd, useForStdio := Decode(entries[i].Info)
		switch tag {
		case TagRoot:
			root = entries[i].Tr
		case TagCwd:
			cwdTr = entries[i].Tr
		case TagRemote, TagPipe, TagLogger:
			if tag == TagRemote && i+1 < len(entries) && entries[i+1].Info == entries[i].Info {
				i++ // companion event handle, already represented by the same transport
			}
			pendings = append(pendings, pendingFD{fd: fd, tr: entries[i].Tr, useForStdio: useForStdio})
		}
	}

	if root == nil {
		root = nulltransport.New()
	}
	if cwdTr == nil {
		if opened, err := root.Open(".", transport.ODirectory, 0); err == nil {
			cwdTr = opened
		} else {
			cwdTr = nulltransport.New()
		}
	}

	core := fdio.New(root, cwd.New(cwdPath, cwdTr), ops)

	stdioDonorFd := -1
	for _, p := range pendings {
		boundFd, dc, err := core.Tab.Bind(p.tr, p.fd, 0)
		if err != nil {
			return nil, err
		}
		if err := dc.Run(); err != nil {
			return nil, err
		}
		if p.useForStdio && stdioDonorFd == -1 {
			stdioDonorFd = boundFd
		}
	}

	for _, stdFd := range [3]int{0, 1, 2} {
		if core.Tab.Get(stdFd) != nil {
			continue
		}
		if stdioDonorFd >= 0 {
			if _, err := core.Tab.Dup(stdioDonorFd, stdFd, 0); err != nil {
				return nil, err
			}
			continue
		}
		if _, _, err := core.Tab.Bind(nulltransport.New(), stdFd, 0); err != nil {
			return nil, err
		}
	}

	return core, nil
}

// Teardown runs the exit hook: under the fd table lock, every slot's
// dupcount is dropped and any transport that reaches zero is closed.
func Teardown(core *fdio.Core) []error {
	return core.Tab.DrainAll()
}
