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

package logtransport

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteForwardsToSlog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	sink := New(log, "stdout", slog.LevelInfo)
	n, err := sink.Write([]byte("hello from the process"))
	require.NoError(t, err)
	assert.Equal(t, len("hello from the process"), n)
	assert.Contains(t, buf.String(), "hello from the process")
	assert.Contains(t, buf.String(), "stdout")
}

func TestReadAlwaysEOF(t *testing.T) {
	sink := New(slog.Default(), "stderr", slog.LevelWarn)
	n, err := sink.Read(make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
