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

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderRefcountDiscipline(t *testing.T) {
	h := NewHeader(0)
	assert.EqualValues(t, 1, h.RefCount())

	h.Ref()
	assert.EqualValues(t, 2, h.RefCount())

	assert.False(t, h.Release())
	assert.True(t, h.Release())
}

func TestHeaderDupCount(t *testing.T) {
	h := NewHeader(0)
	h.IncDup()
	h.IncDup()
	assert.EqualValues(t, 2, h.DupCount())

	h.DecDup()
	assert.EqualValues(t, 1, h.DupCount())
}

func TestHeaderReleaseBelowZeroPanics(t *testing.T) {
	h := NewHeader(0)
	h.Release()
	assert.Panics(t, func() { h.Release() })
}

func TestHeaderSetNonblock(t *testing.T) {
	h := NewHeader(0)
	assert.False(t, h.Flags()&NONBLOCK != 0)

	h.SetNonblock(true)
	assert.True(t, h.Flags()&NONBLOCK != 0)

	h.SetNonblock(false)
	assert.False(t, h.Flags()&NONBLOCK != 0)
}
