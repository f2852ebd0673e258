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

package waitmux

import (
	"testing"

	"github.com/donball360/magenta/internal/fdtable"
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/transport"
	"github.com/donball360/magenta/internal/transport/pipetransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollReportsReadableAfterWrite(t *testing.T) {
	ops := kernel.NewRealOps()
	tab := fdtable.New()
	read, write := pipetransport.New(ops)

	rfd, dc, err := tab.Bind(read, -1, 0)
	require.NoError(t, err)
	dc.Run()
	wfd, dc2, err := tab.Bind(write, -1, 0)
	require.NoError(t, err)
	dc2.Run()

	_, err = tab.Lookup(wfd).Write([]byte("x"))
	require.NoError(t, err)
	fdtable.Release(tab.Lookup(wfd))

	fds := []PollFD{{FD: rfd, Events: transport.POLLIN}}
	n, err := Poll(tab, ops, fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotZero(t, fds[0].Revents&transport.POLLIN)
}

func TestPollInvalidFdSetsPollnval(t *testing.T) {
	ops := kernel.NewRealOps()
	tab := fdtable.New()

	fds := []PollFD{{FD: 99, Events: transport.POLLIN}}
	n, err := Poll(tab, ops, fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, transport.POLLNVAL, fds[0].Revents)
}

func TestPollNegativeFdSkipped(t *testing.T) {
	ops := kernel.NewRealOps()
	tab := fdtable.New()

	fds := []PollFD{{FD: -1, Events: transport.POLLIN}}
	n, err := Poll(tab, ops, fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, transport.PollEvents(0), fds[0].Revents)
}

func TestSelectReflectsReadableSet(t *testing.T) {
	ops := kernel.NewRealOps()
	tab := fdtable.New()
	read, write := pipetransport.New(ops)

	rfd, dc, err := tab.Bind(read, -1, 0)
	require.NoError(t, err)
	dc.Run()
	_, dc2, err := tab.Bind(write, rfd+1, 0)
	require.NoError(t, err)
	dc2.Run()

	_, err = write.Write([]byte("y"))
	require.NoError(t, err)

	rset := FDSet{rfd: true}
	n, err := Select(tab, ops, rfd+2, rset, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, rset[rfd])
}
