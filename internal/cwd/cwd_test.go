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

package cwd

import (
	"testing"

	"github.com/donball360/magenta/internal/transport/nulltransport"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToRoot(t *testing.T) {
	s := New("", nil)
	assert.Equal(t, "/", s.Path())
}

func TestUpdatePathNormalizesDotAndDotDot(t *testing.T) {
	s := New("/", nil)
	s.UpdatePath("/x/./y/../z")
	assert.Equal(t, "/x/z", s.Path())
}

func TestUpdatePathRelativeWalksFromCurrent(t *testing.T) {
	s := New("/x", nil)
	s.UpdatePath("../y")
	assert.Equal(t, "/y", s.Path())
}

func TestUpdatePathNeverPopsPastRoot(t *testing.T) {
	s := New("/", nil)
	s.UpdatePath("../../..")
	assert.Equal(t, "/", s.Path())
}

func TestUpdatePathAbsoluteResets(t *testing.T) {
	s := New("/a/b/c", nil)
	s.UpdatePath("/q")
	assert.Equal(t, "/q", s.Path())
}

func TestUpdatePathCollapsesRepeatedSlashes(t *testing.T) {
	s := New("/", nil)
	s.UpdatePath("//a///b")
	assert.Equal(t, "/a/b", s.Path())
}

func TestUpdatePathOverflowFallsBackToSentinel(t *testing.T) {
	s := New("/", nil)
	long := make([]byte, PathMax+10)
	for i := range long {
		long[i] = 'a'
	}
	s.UpdatePath("/" + string(long))
	assert.Equal(t, unknownSentinel, s.Path())
}

func TestSetInstallsNewTransport(t *testing.T) {
	s := New("/", nil)
	tr := nulltransport.New()
	s.Set("/mnt", tr)
	assert.Equal(t, "/mnt", s.Path())
	assert.Same(t, tr, s.Transport())
}
