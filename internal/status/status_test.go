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

package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestToErrnoMapping(t *testing.T) {
	cases := []struct {
		st   Status
		want unix.Errno
	}{
		{ErrNotFound, unix.ENOENT},
		{ErrAlreadyExists, unix.EEXIST},
		{ErrShouldWait, unix.EAGAIN},
		{ErrBadHandle, unix.EBADF},
		{ErrUnavailable, unix.EBUSY},
		{ErrNotADir, unix.ENOTDIR},
	}

	for _, tc := range cases {
		got := New(tc.st)
		assert.Equal(t, tc.want, got.No, "status %s", tc.st)
	}
}

func TestShouldWait(t *testing.T) {
	assert.True(t, ShouldWait(New(ErrShouldWait)))
	assert.False(t, ShouldWait(New(ErrIO)))
	assert.False(t, ShouldWait(nil))
}

func TestRetn(t *testing.T) {
	n, err := Retn(5, nil)
	assert.Equal(t, 5, n)
	assert.NoError(t, err)

	n, err = Retn(5, EBADF())
	assert.Equal(t, -1, n)
	assert.Error(t, err)
}

func TestErrnoIs(t *testing.T) {
	e := EAGAIN()
	assert.ErrorIs(t, e, unix.EAGAIN)
	assert.NotErrorIs(t, e, unix.EBADF)
}
