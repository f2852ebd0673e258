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

// Package remoteio implements the "remote filesystem objects" transport.
// The wire protocol to an actual remote filesystem service is explicitly
// out of scope: the core only ever consumes a transport's vtable, never
// the protocol behind it. This package instead provides an in-process
// object tree shaped like one, a mutable buffer per file and a
// directory/file node split. It is what the core's tests and the
// cmd/fdioctl demo mount as the root transport.
package remoteio

import (
	"bytes"
	"sort"
	"strings"
	"sync"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// node is one entry in the shared object tree. Exactly one of dir/content
// is meaningful, depending on isDir.
type node struct {
	mu sync.Mutex

	isDir    bool
	children map[string]*node // GUARDED_BY(mu), dir only
	content  []byte           // GUARDED_BY(mu), file only
}

func newDirNode() *node {
	return &node{isDir: true, children: make(map[string]*node)}
}

func newFileNode() *node {
	return &node{}
}

// Tree is the shared backing store multiple Remote transports may be
// opened against (analogous to a single GCS bucket backing many inodes).
type Tree struct {
	root *node
	ops  kernel.Ops
}

// NewTree creates an empty object tree rooted at a directory.
func NewTree(ops kernel.Ops) *Tree {
	return &Tree{root: newDirNode(), ops: ops}
}

// Root returns a Remote transport for the tree's root directory.
func (t *Tree) Root() *Remote {
	return &Remote{hdr: transport.NewHeader(0), n: t.root, ops: t.ops}
}

// Remote is a Transport over one node of a Tree: a directory (supporting
// Open) or a file (supporting ReadAt/WriteAt/Seek).
type Remote struct {
	hdr *transport.Header
	n   *node
	ops kernel.Ops

	// pos is the stream cursor used by Read/Write; files only.
	posMu sync.Mutex
	pos   int64
}

var _ transport.Transport = (*Remote)(nil)

func (r *Remote) Header() *transport.Header { return r.hdr }

func (r *Remote) Read(buf []byte) (int, error) {
	r.posMu.Lock()
	off := r.pos
	r.posMu.Unlock()

	n, err := r.ReadAt(buf, off)
	if err != nil {
		return n, err
	}

	r.posMu.Lock()
	r.pos += int64(n)
	r.posMu.Unlock()
	return n, nil
}

func (r *Remote) Write(buf []byte) (int, error) {
	r.posMu.Lock()
	off := r.pos
	r.posMu.Unlock()

	n, err := r.WriteAt(buf, off)
	if err != nil {
		return n, err
	}

	r.posMu.Lock()
	r.pos += int64(n)
	r.posMu.Unlock()
	return n, nil
}

func (r *Remote) ReadAt(buf []byte, off int64) (int, error) {
	if r.n.isDir {
		return 0, status.New(status.ErrNotADir)
	}
	r.n.mu.Lock()
	defer r.n.mu.Unlock()

	if off >= int64(len(r.n.content)) {
		return 0, nil // EOF
	}
	n := copy(buf, r.n.content[off:])
	return n, nil
}

func (r *Remote) WriteAt(buf []byte, off int64) (int, error) {
	if r.n.isDir {
		return 0, status.New(status.ErrNotADir)
	}
	r.n.mu.Lock()
	defer r.n.mu.Unlock()

	end := off + int64(len(buf))
	if end > int64(len(r.n.content)) {
		grown := make([]byte, end)
		copy(grown, r.n.content)
		r.n.content = grown
	}
	copy(r.n.content[off:end], buf)
	return len(buf), nil
}

func (r *Remote) Seek(off int64, whence transport.Whence) (int64, error) {
	if r.n.isDir {
		return 0, status.New(status.ErrNotADir)
	}
	r.posMu.Lock()
	defer r.posMu.Unlock()

	r.n.mu.Lock()
	size := int64(len(r.n.content))
	r.n.mu.Unlock()

	switch whence {
	case transport.SeekSet:
		r.pos = off
	case transport.SeekCur:
		r.pos += off
	case transport.SeekEnd:
		r.pos = size + off
	default:
		return 0, status.New(status.ErrInvalidArgs)
	}
	if r.pos < 0 {
		r.pos = 0
		return 0, status.New(status.ErrInvalidArgs)
	}
	return r.pos, nil
}

// Open resolves a single path component within this directory node,
// creating it if O_CREAT is set and it does not exist. It is valid only
// on directory-like nodes.
//
// Multi-component paths are the path resolver's job (internal/pathresolve
// walks one component at a time via repeated Open calls), matching the
// teacher's child-at-a-time LookUpChild convention (fs/inode/dir.go).
func (r *Remote) Open(path string, flags transport.OpenFlags, mode uint32) (transport.Transport, error) {
	if !r.n.isDir {
		return nil, status.New(status.ErrNotADir)
	}
	if path == "" || path == "." {
		return &Remote{hdr: transport.NewHeader(0), n: r.n, ops: r.ops}, nil
	}

	r.n.mu.Lock()
	child, ok := r.n.children[path]
	if !ok {
		if flags&transport.OCreat == 0 {
			r.n.mu.Unlock()
			return nil, status.New(status.ErrNotFound)
		}
		if flags&transport.ODirectory != 0 {
			child = newDirNode()
		} else {
			child = newFileNode()
		}
		r.n.children[path] = child
	} else if flags&transport.OCreat != 0 && flags&transport.OExcl != 0 {
		r.n.mu.Unlock()
		return nil, status.New(status.ErrAlreadyExists)
	}
	r.n.mu.Unlock()

	if !child.isDir && flags&transport.ODirectory != 0 {
		return nil, status.New(status.ErrNotADir)
	}
	if child.isDir && flags&transport.ODirectory == 0 && flags&transport.OCreat != 0 {
		// Asking to create a plain file where a directory already exists.
		return nil, status.New(status.ErrAlreadyExists)
	}

	return &Remote{hdr: transport.NewHeader(0), n: child, ops: r.ops}, nil
}

func (r *Remote) Clone() ([]kernel.Handle, error) { return nil, status.New(status.ErrNotSupported) }

func (r *Remote) Unwrap() ([]kernel.Handle, error) { return nil, status.New(status.ErrNotSupported) }

func (r *Remote) Close() error { return nil }

// Misc implements the typed control channel: stat, truncate, unlink,
// rename, link, sync, setattr, readdir.
func (r *Remote) Misc(op transport.MiscOp, arg int64, payload []byte) (interface{}, error) {
	switch op {
	case transport.MiscStat:
		return r.stat(), nil

	case transport.MiscTruncate:
		if r.n.isDir {
			return nil, status.New(status.ErrNotADir)
		}
		r.n.mu.Lock()
		defer r.n.mu.Unlock()
		size := arg
		if size < 0 {
			return nil, status.New(status.ErrInvalidArgs)
		}
		if int64(len(r.n.content)) >= size {
			r.n.content = r.n.content[:size]
		} else {
			grown := make([]byte, size)
			copy(grown, r.n.content)
			r.n.content = grown
		}
		return nil, nil

	case transport.MiscUnlink:
		if !r.n.isDir {
			return nil, status.New(status.ErrNotADir)
		}
		name := string(payload)
		r.n.mu.Lock()
		defer r.n.mu.Unlock()
		child, ok := r.n.children[name]
		if !ok {
			return nil, status.New(status.ErrNotFound)
		}
		if child.isDir && len(child.children) > 0 {
			return nil, status.New(status.ErrInvalidArgs)
		}
		delete(r.n.children, name)
		return nil, nil

	case transport.MiscReadDir:
		return r.readDir(transport.ReadDirCmd(arg))

	case transport.MiscSync, transport.MiscSetAttr:
		return nil, nil

	case transport.MiscRename:
		if !r.n.isDir {
			return nil, status.New(status.ErrNotADir)
		}
		oldPath, newPath, err := splitTwoPath(payload)
		if err != nil {
			return nil, err
		}
		oldParent, oldLeaf, err := resolveParent(r.n, oldPath)
		if err != nil {
			return nil, err
		}
		newParent, newLeaf, err := resolveParent(r.n, newPath)
		if err != nil {
			return nil, err
		}
		oldParent.mu.Lock()
		child, ok := oldParent.children[oldLeaf]
		if ok {
			delete(oldParent.children, oldLeaf)
		}
		oldParent.mu.Unlock()
		if !ok {
			return nil, status.New(status.ErrNotFound)
		}
		newParent.mu.Lock()
		newParent.children[newLeaf] = child
		newParent.mu.Unlock()
		return nil, nil

	case transport.MiscLink:
		if !r.n.isDir {
			return nil, status.New(status.ErrNotADir)
		}
		oldPath, newPath, err := splitTwoPath(payload)
		if err != nil {
			return nil, err
		}
		oldParent, oldLeaf, err := resolveParent(r.n, oldPath)
		if err != nil {
			return nil, err
		}
		newParent, newLeaf, err := resolveParent(r.n, newPath)
		if err != nil {
			return nil, err
		}
		oldParent.mu.Lock()
		child, ok := oldParent.children[oldLeaf]
		oldParent.mu.Unlock()
		if !ok {
			return nil, status.New(status.ErrNotFound)
		}
		if child.isDir {
			return nil, status.New(status.ErrNotSupported)
		}
		newParent.mu.Lock()
		if _, exists := newParent.children[newLeaf]; exists {
			newParent.mu.Unlock()
			return nil, status.New(status.ErrAlreadyExists)
		}
		newParent.children[newLeaf] = child
		newParent.mu.Unlock()
		return nil, nil

	default:
		return nil, status.New(status.ErrNotSupported)
	}
}

// splitTwoPath decodes the NUL-separated old/new path payload Core.Rename
// and Core.Link submit.
func splitTwoPath(payload []byte) (oldPath, newPath string, err error) {
	idx := bytes.IndexByte(payload, 0)
	if idx < 0 {
		return "", "", status.New(status.ErrInvalidArgs)
	}
	rest := payload[idx+1:]
	idx2 := bytes.IndexByte(rest, 0)
	if idx2 < 0 {
		return "", "", status.New(status.ErrInvalidArgs)
	}
	return string(payload[:idx]), string(rest[:idx2]), nil
}

// resolveParent walks path's directory components from root, returning
// the immediate parent node and the leaf name. It does not require the
// leaf itself to exist.
func resolveParent(root *node, path string) (*node, string, error) {
	segs := pathSegments(path)
	if len(segs) == 0 {
		return nil, "", status.New(status.ErrInvalidArgs)
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		cur.mu.Lock()
		child, ok := cur.children[seg]
		cur.mu.Unlock()
		if !ok {
			return nil, "", status.New(status.ErrNotFound)
		}
		if !child.isDir {
			return nil, "", status.New(status.ErrNotADir)
		}
		cur = child
	}
	return cur, segs[len(segs)-1], nil
}

func pathSegments(p string) []string {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

func (r *Remote) stat() *transport.Stat {
	now := r.ops.Now()
	r.n.mu.Lock()
	defer r.n.mu.Unlock()

	st := &transport.Stat{IsDir: r.n.isDir, Mtime: now, Ctime: now, Atime: now}
	if r.n.isDir {
		st.Mode = 0755
	} else {
		st.Mode = 0644
		st.Size = int64(len(r.n.content))
	}
	return st
}

// readDir answers MiscReadDir. A reset (rewinddir marks the cursor for
// reset) returns every child in one batch, sorted by name; a continuation
// after it returns no entries, since the reset batch already held the
// whole listing.
func (r *Remote) readDir(cmd transport.ReadDirCmd) ([]transport.Dirent, error) {
	if !r.n.isDir {
		return nil, status.New(status.ErrNotADir)
	}
	if cmd != transport.ReadDirReset {
		return []transport.Dirent{}, nil
	}
	r.n.mu.Lock()
	defer r.n.mu.Unlock()

	entries := make([]transport.Dirent, 0, len(r.n.children))
	for name, child := range r.n.children {
		typ := uint8(8) // DT_REG
		if child.isDir {
			typ = 4 // DT_DIR
		}
		entries = append(entries, transport.Dirent{Name: name, Type: typ})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (r *Remote) Ioctl(op uint32, in []byte) ([]byte, error) {
	return nil, status.New(status.ErrNotSupported)
}

func (r *Remote) PosixIoctl(op uint32, arg uintptr) error {
	return status.New(status.ErrNotSupported)
}

// WaitBegin/WaitEnd: remote objects are not waitable the way a pipe or
// socket is; stat-like transports have no handle to wait on.
func (r *Remote) WaitBegin(events transport.PollEvents) (kernel.Handle, kernel.Signals) {
	return kernel.Invalid, 0
}

func (r *Remote) WaitEnd(sig kernel.Signals) transport.PollEvents { return 0 }

func (r *Remote) GetVMO() (kernel.Handle, uint64, uint64, error) {
	return kernel.Invalid, 0, 0, status.New(status.ErrNotSupported)
}
