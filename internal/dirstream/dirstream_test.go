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

package dirstream

import (
	"testing"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/transport"
	"github.com/donball360/magenta/internal/transport/remoteio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIteratesAllEntries(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()
	_, err := root.Open("a", transport.OCreat, 0644)
	require.NoError(t, err)
	_, err = root.Open("b", transport.OCreat, 0644)
	require.NoError(t, err)

	s := Open(3, root)
	names := map[string]bool{}
	for {
		d, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names[d.Name] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, names)
}

func TestNextOnEmptyDirReturnsFalse(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()

	s := Open(3, root)
	_, ok, err := s.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRewindRestartsIteration(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	root := tree.Root()
	_, err := root.Open("a", transport.OCreat, 0644)
	require.NoError(t, err)

	s := Open(3, root)
	d, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", d.Name)

	s.Rewind()
	d, ok, err = s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", d.Name)
}

func TestFDReturnsBackingDescriptor(t *testing.T) {
	tree := remoteio.NewTree(kernel.NewRealOps())
	s := Open(9, tree.Root())
	assert.Equal(t, 9, s.FD())
}
