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

// Package cwd owns the process-wide current-working-directory state: a
// textual normalized path plus the directory transport it names. Both are
// protected by a dedicated mutex distinct from the fd table's: each piece
// of process-wide state gets its own narrow lock rather than one global
// one.
//
// Locking order relative to internal/fdtable is cwd -> fdtab: State's
// methods never call into fdtable while holding mu.
package cwd

import (
	"strings"
	"sync"

	"github.com/donball360/magenta/internal/transport"
)

// PathMax bounds the normalized textual path, mirroring POSIX PATH_MAX.
const PathMax = 4096

// unknownSentinel is substituted when normalization would overflow PathMax.
const unknownSentinel = "(unknown)"

// State holds the cwd path and transport. The zero State is not usable;
// construct with New.
type State struct {
	mu sync.Mutex

	// GUARDED_BY(mu)
	path string
	tr   transport.Transport
}

// New returns a State seeded with path (typically "/" or the PWD
// environment variable at startup) and tr (the transport that path
// resolves to; may be nil until startup installs one).
func New(path string, tr transport.Transport) *State {
	if path == "" {
		path = "/"
	}
	return &State{path: path, tr: tr}
}

// Path returns the current normalized cwd string, the value getcwd()
// reports.
func (s *State) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Transport returns the current cwd transport without taking a reference;
// callers that need to hold onto it across a vtable call must Ref it
// themselves via its Header.
func (s *State) Transport() transport.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

// Set installs a new cwd transport and the textual path it corresponds
// to, used by chdir once the target has been resolved and verified to be
// a directory.
func (s *State) Set(path string, tr transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = normalize(s.path, path)
	s.tr = tr
}

// UpdatePath renormalizes the cwd string textually, for chdir paths that
// stayed within the same transport (e.g. chdir(".") or a relative walk
// that resolved under the existing cwd transport without producing a new
// one to install).
func (s *State) UpdatePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = normalize(s.path, path)
}

// normalize implements textual cwd tracking: absolute paths reset to "/";
// "." segments are skipped; ".." pops the last segment, never past "/";
// repeated separators collapse. Overflow beyond PathMax falls back to the
// unknown sentinel rather than failing the call outright, since the cwd
// transport itself remains valid even when its textual name does not fit.
func normalize(base, path string) string {
	var segs []string
	if strings.HasPrefix(path, "/") {
		segs = nil
	} else {
		segs = splitSegs(base)
	}

	for _, seg := range splitSegs(path) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, seg)
		}
	}

	result := "/" + strings.Join(segs, "/")
	if len(result) > PathMax {
		return unknownSentinel
	}
	return result
}

func splitSegs(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
