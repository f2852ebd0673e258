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

// Package metrics wires the fdio core's counters into
// prometheus/client_golang. Every gauge/counter here is process-wide,
// matching the fdtab and cwd state it describes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OpenFDs tracks the current number of occupied fd-table slots.
	OpenFDs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "magenta",
		Subsystem: "fdtable",
		Name:      "open_fds",
		Help:      "Number of currently occupied file descriptor slots.",
	})

	// Dups counts every successful dup/dup2/dup3 call.
	Dups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "magenta",
		Subsystem: "fdtable",
		Name:      "dup_total",
		Help:      "Total number of successful dup-family calls.",
	})

	// PollCalls counts poll(2) invocations.
	PollCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "magenta",
		Subsystem: "waitmux",
		Name:      "poll_calls_total",
		Help:      "Total number of poll(2) calls made through the core.",
	})

	// SelectCalls counts select(2) invocations.
	SelectCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "magenta",
		Subsystem: "waitmux",
		Name:      "select_calls_total",
		Help:      "Total number of select(2) calls made through the core.",
	})

	// BlockingRetries counts trips through the blocking-emulation retry
	// loop (a non-blocking op returned ERR_SHOULD_WAIT and the fd is not
	// itself NONBLOCK).
	BlockingRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "magenta",
		Subsystem: "fdio",
		Name:      "blocking_retries_total",
		Help:      "Total number of wait_fd retries taken to emulate blocking I/O.",
	})
)

// Registry is a dedicated registry rather than the global default one, so
// that repeated test construction of fdio cores does not panic on
// duplicate registration.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(OpenFDs, Dups, PollCalls, SelectCalls, BlockingRetries)
}
