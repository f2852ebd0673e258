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

package obslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpLogsFailureWithErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	defer SetLogger(orig)
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	Op("close", 4, assertErr{})
	assert.Contains(t, buf.String(), "fdio call failed")
	assert.Contains(t, buf.String(), "close")
}

func TestOpLogsSuccess(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	defer SetLogger(orig)
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	Op("read", 3, nil)
	assert.Contains(t, buf.String(), "fdio call")
	assert.NotContains(t, buf.String(), "failed")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
