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

package main

import (
	"ish.dev/ish/pkg/sentry/kernel"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

// newDemoKernel builds a Kernel backed by fixed platform.Fake*
// collaborators and a small seeded task tree: init (pid 1) with two
// children. There is no persisted state to load, so every ishctl invocation starts
// fresh the way a real guest boot would, rather than connecting to a
// long-lived daemon.
func newDemoKernel() (*kernel.Kernel, []*kernel.Task) {
	k := kernel.NewKernel(kernel.KernelConfig{
		Telemetry: &platform.FakeTelemetry{
			Cpus: 4,
			Up:   platform.UptimeInfo{UptimeTicks: 12345, Load1m: 65536, Load5m: 32768, Load15m: 16384},
		},
		CPU: &platform.FakeCPU{
			UTS: platform.UTSName{System: "ish", Release: "1.0.0", Version: "ishctl demo"},
		},
		VFS: &platform.FakeVFS{FS: "nodev\tproc\n"},
	})

	init, err := k.CreateInitTask()
	if err != nil {
		return k, nil
	}
	init.SetComm("init")

	children := make([]*kernel.Task, 0, 2)
	for _, comm := range []string{"sh", "sleep"} {
		child, err := k.Create(init, kernel.CloneFlags{NewThreadGroup: true})
		if err != nil {
			continue
		}
		child.SetComm(comm)
		children = append(children, child)
	}
	return k, children
}
