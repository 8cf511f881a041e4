// Copyright 2018 The gVisor Authors.
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

package proc

import "ish.dev/ish/pkg/sentry/kernel"

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// showLoadavg implements /proc/loadavg:
// "%.2f %.2f %.2f %d/%d %d\n" -- 1/5/15-minute loads (16.16 fixed-point),
// running (clamped to cpu_count), alive, last-allocated pid.
func showLoadavg(k *kernel.Kernel) []byte {
	p := &printer{}

	up := k.Telemetry.Uptime()
	load1 := float64(up.Load1m) / 65536.0
	load5 := float64(up.Load5m) / 65536.0
	load15 := float64(up.Load15m) / 65536.0

	alive := k.PIDs.CountAlive()
	blocked := k.PIDs.CountBlocked()
	running := minInt(k.Telemetry.CPUCount(), alive-blocked)
	lastPID := k.PIDs.LastAllocatedPID()

	p.printf("%.2f %.2f %.2f %d/%d %d\n", load1, load5, load15, running, alive, lastPID)
	return p.bytes()
}
