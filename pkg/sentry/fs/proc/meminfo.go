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

func showKB(p *printer, name string, value uint64) {
	p.printf("%s%8d kB\n", name, value/1000)
}

// showMeminfo implements /proc/meminfo: a fixed set of "Key: %8u kB"
// lines, several of them zero placeholders kept only because tools
// like busybox top expect the fields to be present.
func showMeminfo(k *kernel.Kernel) []byte {
	p := &printer{}
	m := k.Telemetry.MemUsage()

	showKB(p, "MemTotal:       ", m.Total)
	showKB(p, "MemFree:        ", m.Free)
	showKB(p, "MemAvailable:   ", m.Available)
	showKB(p, "MemShared:      ", m.Free)
	showKB(p, "Active:         ", m.Active)
	showKB(p, "Inactive:       ", m.Inactive)
	showKB(p, "SwapCached:     ", 0)
	showKB(p, "Shmem:          ", 0)
	showKB(p, "Buffers:        ", 0)
	showKB(p, "Cached:         ", m.Cached)
	showKB(p, "SwapTotal:      ", 0)
	showKB(p, "SwapFree:       ", 0)
	showKB(p, "Dirty:          ", 0)
	showKB(p, "Writeback:      ", 0)
	showKB(p, "AnonPages:      ", 0)
	showKB(p, "Mapped:         ", 0)
	showKB(p, "Slab:           ", 0)
	showKB(p, "Swapins:        ", m.Swapins)
	showKB(p, "Swapouts:       ", m.Swapouts)
	showKB(p, "WireCount:      ", m.WireCount)
	return p.bytes()
}
