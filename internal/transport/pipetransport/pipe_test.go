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

package pipetransport

import (
	"testing"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBeforeWriteShouldWait(t *testing.T) {
	ops := kernel.NewRealOps()
	r, _ := New(ops)

	buf := make([]byte, 10)
	n, err := r.Read(buf)
	assert.Equal(t, 0, n)
	require.Error(t, err)
	assert.True(t, status.ShouldWait(err))
}

func TestWriteThenRead(t *testing.T) {
	ops := kernel.NewRealOps()
	r, w := New(ops)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 10)
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestReadAfterWriteCloseReturnsEOF(t *testing.T) {
	ops := kernel.NewRealOps()
	r, w := New(ops)
	require.NoError(t, w.Close())

	buf := make([]byte, 10)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWriteAfterReadCloseFails(t *testing.T) {
	ops := kernel.NewRealOps()
	r, w := New(ops)
	require.NoError(t, r.Close())

	_, err := w.Write([]byte("x"))
	require.Error(t, err)
}
