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

package posixflags

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOpenFlagsTranslatesCreateAndExcl(t *testing.T) {
	got := ToOpenFlags(unix.O_CREAT | unix.O_EXCL | unix.O_RDWR)
	assert.NotZero(t, got&transport.OCreat)
	assert.NotZero(t, got&transport.OExcl)
	assert.NotZero(t, got&transport.ORdwr)
}

func TestValidateDup3FlagsRejectsUnknownBits(t *testing.T) {
	require.NoError(t, ValidateDup3Flags(0))
	require.NoError(t, ValidateDup3Flags(unix.O_CLOEXEC))
	assert.Error(t, ValidateDup3Flags(unix.O_APPEND))
}

func TestApplySetFLOnlyTogglesNonblock(t *testing.T) {
	hdr := transport.NewHeader(0)
	ApplySetFL(hdr, unix.O_NONBLOCK|unix.O_APPEND)
	assert.NotZero(t, hdr.Flags()&transport.NONBLOCK)
	assert.Equal(t, unix.O_NONBLOCK, GetFL(hdr))

	ApplySetFL(hdr, 0)
	assert.Zero(t, hdr.Flags()&transport.NONBLOCK)
	assert.Equal(t, 0, GetFL(hdr))
}
