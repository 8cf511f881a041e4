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

// showStat implements /proc/stat: aggregate cpu
// line, one cpuN line per processor, then ctxt/btime/processes/
// procs_running/procs_blocked.
func showStat(k *kernel.Kernel) []byte {
	p := &printer{}

	total := k.Telemetry.TotalCPUUsage()
	p.printf("cpu  %d %d %d %d 0 0 0 0\n", total.UserTicks, total.NiceTicks, total.SystemTicks, total.IdleTicks)

	if per, err := k.Telemetry.PerCPUUsage(); err == nil {
		for i, u := range per {
			p.printf("cpu%d  %d %d %d %d 0 0 0 0\n", i, u.UserTicks, u.NiceTicks, u.SystemTicks, u.IdleTicks)
		}
	}

	alive := k.PIDs.CountAlive()
	blocked := k.PIDs.CountBlocked()
	uptime := k.Telemetry.Uptime()

	p.printf("ctxt 0\n")
	p.printf("btime %d\n", uptime.UptimeTicks)
	p.printf("processes %d\n", alive)
	p.printf("procs_running %d\n", alive-blocked)
	p.printf("procs_blocked %d\n", blocked)
	return p.bytes()
}
