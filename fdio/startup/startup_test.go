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

package startup

import (
	"testing"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/transport/remoteio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsMakeInfo(t *testing.T) {
	info := MakeInfo(TagRemote, 3, true)
	tag, fd, useForStdio := Decode(info)
	assert.Equal(t, TagRemote, tag)
	assert.Equal(t, 3, fd)
	assert.True(t, useForStdio)
}

// TestBuildRootCwdRemoteWithStdio reproduces the scenario where a ROOT and
// CWD handle are supplied along with a REMOTE handle (paired with its
// companion event handle) at fd 3, flagged USE_FOR_STDIO: fd 3 plus fds
// 0, 1, 2 all end up aliasing the same transport, for a dupcount of 4.
func TestBuildRootCwdRemoteWithStdio(t *testing.T) {
	ops := kernel.NewRealOps()
	tree := remoteio.NewTree(ops)
	rootTr := tree.Root()
	cwdTr := tree.Root()
	remoteTr := tree.Root()

	remoteInfo := MakeInfo(TagRemote, 3, true)
	entries := []Entry{
		{Info: MakeInfo(TagRoot, 0, false), Tr: rootTr},
		{Info: MakeInfo(TagCwd, 0, false), Tr: cwdTr},
		{Info: remoteInfo, Tr: remoteTr},
		{Info: remoteInfo, Tr: remoteTr}, // companion event handle
	}

	core, err := Build(entries, ops, "/")
	require.NoError(t, err)

	for _, fd := range []int{0, 1, 2, 3} {
		got := core.Tab.Get(fd)
		require.NotNil(t, got, "fd %d should be populated", fd)
		assert.Same(t, remoteTr, got)
	}
	assert.Equal(t, int32(4), remoteTr.Header().DupCount())
}

func TestBuildMissingRootInstallsNull(t *testing.T) {
	ops := kernel.NewRealOps()
	core, err := Build(nil, ops, "/")
	require.NoError(t, err)

	for _, fd := range []int{0, 1, 2} {
		assert.NotNil(t, core.Tab.Get(fd))
	}
}

func TestBuildWithoutStdioDonorInstallsNullStdio(t *testing.T) {
	ops := kernel.NewRealOps()
	tree := remoteio.NewTree(ops)
	rootTr := tree.Root()
	pipeTr := tree.Root()

	entries := []Entry{
		{Info: MakeInfo(TagRoot, 0, false), Tr: rootTr},
		{Info: MakeInfo(TagPipe, 5, false), Tr: pipeTr},
	}
	core, err := Build(entries, ops, "/")
	require.NoError(t, err)

	assert.NotNil(t, core.Tab.Get(5))
	assert.Same(t, pipeTr, core.Tab.Get(5))
	for _, fd := range []int{0, 1, 2} {
		got := core.Tab.Get(fd)
		require.NotNil(t, got)
		assert.NotSame(t, pipeTr, got)
	}
}

func TestTeardownDrainsEverySlot(t *testing.T) {
	ops := kernel.NewRealOps()
	core, err := Build(nil, ops, "/")
	require.NoError(t, err)

	errs := Teardown(core)
	assert.Empty(t, errs)
}
