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

package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitOneFiresOnSignal(t *testing.T) {
	ops := NewRealOps()
	h := ops.NewHandle()

	done := make(chan Signals, 1)
	go func() {
		pending, err := ops.WaitOne(h, SignalReadable, -1)
		require.NoError(t, err)
		done <- pending
	}()

	time.Sleep(10 * time.Millisecond)
	ops.SetSignals(h, SignalReadable)

	select {
	case pending := <-done:
		assert.Equal(t, SignalReadable, pending)
	case <-time.After(time.Second):
		t.Fatal("WaitOne never returned")
	}
}

func TestWaitOneTimesOut(t *testing.T) {
	ops := NewRealOps()
	h := ops.NewHandle()

	_, err := ops.WaitOne(h, SignalReadable, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestWaitManyReturnsOnFirstReady(t *testing.T) {
	ops := NewRealOps()
	h1 := ops.NewHandle()
	h2 := ops.NewHandle()

	items := []WaitItem{
		{Handle: h1, WaitFor: SignalReadable},
		{Handle: h2, WaitFor: SignalWritable},
	}

	ops.SetSignals(h2, SignalWritable)

	err := ops.WaitMany(items, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Signals(0), items[0].Pending)
	assert.Equal(t, SignalWritable, items[1].Pending)
}

func TestCloseInvalidatesHandle(t *testing.T) {
	ops := NewRealOps()
	h := ops.NewHandle()
	require.NoError(t, ops.Close(h))

	pending, err := ops.WaitOne(h, SignalReadable, 0)
	require.NoError(t, err)
	assert.Equal(t, SignalError, pending)
}
