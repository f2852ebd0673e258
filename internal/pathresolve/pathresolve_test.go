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

package pathresolve

import (
	"testing"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
	"github.com/donball360/magenta/internal/transport/remoteio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noLookup(fd int) transport.Transport { return nil }

func TestResolveAbsoluteUsesRoot(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()

	base, residual, err := Resolve(root, nil, noLookup, AtFDCWD, "/a/b")
	require.NoError(t, err)
	assert.Same(t, root, base)
	assert.Equal(t, "a/b", residual)
}

func TestResolveAbsoluteRootOnlyBecomesDot(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()

	_, residual, err := Resolve(root, nil, noLookup, AtFDCWD, "/")
	require.NoError(t, err)
	assert.Equal(t, ".", residual)
}

func TestResolveAtFDCWDUsesCwd(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	cwd := tree.Root()

	base, residual, err := Resolve(nil, cwd, noLookup, AtFDCWD, "x/y")
	require.NoError(t, err)
	assert.Same(t, cwd, base)
	assert.Equal(t, "x/y", residual)
}

func TestResolveDirfdUsesLookup(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	dir := tree.Root()
	lookup := func(fd int) transport.Transport {
		if fd == 7 {
			return dir
		}
		return nil
	}

	base, residual, err := Resolve(nil, nil, lookup, 7, "x")
	require.NoError(t, err)
	assert.Same(t, dir, base)
	assert.Equal(t, "x", residual)
}

func TestResolveInvalidDirfdFailsEbadf(t *testing.T) {
	_, _, err := Resolve(nil, nil, noLookup, 7, "x")
	require.Error(t, err)
	var errno *status.Errno
	require.ErrorAs(t, err, &errno)
	assert.Equal(t, status.ErrBadHandle, errno.St)
}

func TestResolveContainerSplitsParentAndLeaf(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()
	_, err := root.Open("sub", transport.OCreat|transport.ODirectory, 0755)
	require.NoError(t, err)

	parent, leaf, err := ResolveContainer(root, nil, noLookup, AtFDCWD, "/sub/x")
	require.NoError(t, err)
	assert.Equal(t, "x", leaf)
	assert.NotNil(t, parent)
}

func TestResolveContainerBareNameUsesDot(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()

	parent, leaf, err := ResolveContainer(nil, root, noLookup, AtFDCWD, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", leaf)
	assert.NotNil(t, parent)
}

func TestResolveContainerEmptyLeafFailsEinval(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()

	_, _, err := ResolveContainer(root, nil, noLookup, AtFDCWD, "/")
	require.Error(t, err)
}

func TestResolveContainerWalksMultiComponentDirPart(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()
	a, err := root.Open("a", transport.OCreat|transport.ODirectory, 0755)
	require.NoError(t, err)
	_, err = a.Open("b", transport.OCreat|transport.ODirectory, 0755)
	require.NoError(t, err)

	parent, leaf, err := ResolveContainer(root, nil, noLookup, AtFDCWD, "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "c", leaf)
	assert.NotNil(t, parent)
}
