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

// showUptime implements /proc/uptime:
// "<u>.<frac> <u>.<frac>\n" where frac = uptime_ticks % 100, via
// integer division/mod rather than floating point formatting.
func showUptime(k *kernel.Kernel) []byte {
	p := &printer{}
	ticks := k.Telemetry.Uptime().UptimeTicks
	whole, frac := ticks/100, ticks%100
	p.printf("%d.%d %d.%d\n", whole, frac, whole, frac)
	return p.bytes()
}
