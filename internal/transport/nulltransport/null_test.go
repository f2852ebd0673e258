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

package nulltransport

import (
	"testing"

	"github.com/donball360/magenta/internal/kernel"
	"github.com/stretchr/testify/assert"
)

func TestNullReadReturnsEOFLikeZero(t *testing.T) {
	n := New()
	buf := make([]byte, 16)
	got, err := n.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestNullWriteSwallows(t *testing.T) {
	n := New()
	got, err := n.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestNullWaitBeginIsInvalid(t *testing.T) {
	n := New()
	h, _ := n.WaitBegin(0)
	assert.Equal(t, kernel.Invalid, h)
}

func TestNullOpenFails(t *testing.T) {
	n := New()
	_, err := n.Open("foo", 0, 0)
	assert.Error(t, err)
}
