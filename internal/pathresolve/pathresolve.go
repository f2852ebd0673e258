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

// Package pathresolve implements the dirfd/path dispatch rules shared by
// every path-taking POSIX call: choosing a base transport for a
// (dirfd, path) pair and splitting a path into a parent directory plus a
// leaf name for container-level operations like unlink.
//
// The base-selection algorithm is a parent-then-leaf walk generalized from
// a single fixed root to an arbitrary dirfd source.
package pathresolve

import (
	"strings"

	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// AtFDCWD is the dirfd sentinel meaning "resolve relative to the cwd",
// mirroring POSIX AT_FDCWD.
const AtFDCWD = -100

// Lookup is the subset of fd-table behavior path resolution needs: find
// the transport bound to fd, taking a reference the caller must release.
type Lookup func(fd int) transport.Transport

// Resolve implements resolve(dirfd, path): picks a base transport and
// returns it alongside the residual path to walk from there.
//
//  1. If path is absolute, the base is root; the leading slash is
//     stripped, and an empty residual becomes ".".
//  2. Else if dirfd == AtFDCWD, the base is cwd.
//  3. Else if dirfd names a valid fd, the base is its transport.
//  4. Else EBADF.
//
// The returned transport has an extra reference the caller must release
// via the fd table's Release, matching the reference cwd/fdtab already
// hand out.
func Resolve(root, cwdTr transport.Transport, lookup Lookup, dirfd int, path string) (base transport.Transport, residual string, err error) {
	if strings.HasPrefix(path, "/") {
		residual = strings.TrimPrefix(path, "/")
		if residual == "" {
			residual = "."
		}
		if root == nil {
			return nil, "", status.EBADF()
		}
		root.Header().Ref()
		return root, residual, nil
	}

	if dirfd == AtFDCWD {
		if cwdTr == nil {
			return nil, "", status.EBADF()
		}
		cwdTr.Header().Ref()
		return cwdTr, path, nil
	}

	tr := lookup(dirfd)
	if tr == nil {
		return nil, "", status.EBADF()
	}
	return tr, path, nil
}

// ResolveContainer implements resolve_container(dirfd, path): strips
// trailing slashes, splits on the last remaining slash, opens the parent
// with O_DIRECTORY, and returns it alongside the leaf name. A bare leaf
// (no slash) resolves its parent as "." under the same base Resolve would
// have picked. An empty leaf after stripping fails EINVAL.
func ResolveContainer(root, cwdTr transport.Transport, lookup Lookup, dirfd int, path string) (parent transport.Transport, leaf string, err error) {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return nil, "", status.EINVAL()
	}

	idx := strings.LastIndex(trimmed, "/")
	var dirPart string
	if idx < 0 {
		dirPart = "."
		leaf = trimmed
	} else {
		dirPart = trimmed[:idx]
		if dirPart == "" {
			dirPart = "/"
		}
		leaf = trimmed[idx+1:]
	}
	if leaf == "" {
		return nil, "", status.EINVAL()
	}

	base, residual, err := Resolve(root, cwdTr, lookup, dirfd, dirPart)
	if err != nil {
		return nil, "", err
	}

	parentTr, walkErr := walkDir(base, residual)
	if base.Header().Release() {
		base.Close()
	}
	if walkErr != nil {
		return nil, "", walkErr
	}
	return parentTr, leaf, nil
}

// walkDir resolves every residual path component one at a time, exactly
// as openat's component walk does, so a multi-component dirPart (e.g.
// "a/b/c") is actually walked instead of handed to a single Open call
// that only ever understands one component. The final component is
// opened with O_DIRECTORY, since it must itself name a directory to
// serve as a container.
func walkDir(base transport.Transport, residual string) (transport.Transport, error) {
	if residual == "." {
		base.Header().Ref()
		return base, nil
	}

	comps := splitPath(residual)
	cur := base
	cur.Header().Ref()
	for i, comp := range comps {
		last := i == len(comps)-1
		var flags transport.OpenFlags
		if last {
			flags = transport.ODirectory
		}
		next, err := cur.Open(comp, flags, 0)
		if releaseIfLast(cur) {
			cur.Close()
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// splitPath breaks a slash-separated path into non-empty components,
// collapsing repeated slashes. A path with no components (e.g. "") walks
// as ".".
func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return []string{"."}
	}
	return out
}

func releaseIfLast(tr transport.Transport) bool {
	return tr.Header().Release()
}
