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

package fdio

import (
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/transport/pipetransport"
)

// Pipe2 implements pipe2(2): builds a fresh connected pipe pair and binds
// both ends into new fds. nonblock sets O_NONBLOCK on both ends.
func (c *Core) Pipe2(ops *kernel.RealOps, nonblock bool) (r, w int, err error) {
	read, write := pipetransport.New(ops)
	if nonblock {
		read.Header().SetNonblock(true)
		write.Header().SetNonblock(true)
	}
	return c.Pipe(read, write)
}
