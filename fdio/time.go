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

import "time"

// infiniteWait is passed to kernel.Ops.WaitOne to block forever.
const infiniteWait = -1 * time.Nanosecond

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
