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

import (
	"strconv"
	"testing"

	"ish.dev/ish/pkg/sentry/kernel"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

func newTestKernel(t *testing.T, cfg kernel.KernelConfig) *kernel.Kernel {
	t.Helper()
	if cfg.Telemetry == nil {
		cfg.Telemetry = &platform.FakeTelemetry{Cpus: 1}
	}
	if cfg.CPU == nil {
		cfg.CPU = &platform.FakeCPU{}
	}
	if cfg.VFS == nil {
		cfg.VFS = &platform.FakeVFS{}
	}
	k := kernel.NewKernel(cfg)
	t.Cleanup(k.Teardown)
	return k
}

// TestReaddirRootAlphabeticalThenPid is root readdir
// contract: static entries first in alphabetical order, then a
// pid-scanning phase.
func TestReaddirRootAlphabeticalThenPid(t *testing.T) {
	k := newTestKernel(t, kernel.KernelConfig{})
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	index := 0
	for i := 0; i < rootLen; i++ {
		ent, next, ok := ReaddirRoot(k, index)
		if !ok {
			t.Fatalf("readdir ended early at static index %d", i)
		}
		if ent.Static == nil {
			t.Fatalf("expected a static entry at index %d", i)
		}
		names = append(names, ent.Static.Name)
		index = next
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("static entries not alphabetical: %q then %q", names[i-1], names[i])
		}
	}

	ent, next, ok := ReaddirRoot(k, index)
	if !ok || ent.Static != nil || ent.Pid != init.PID {
		t.Fatalf("expected to find init pid next, got %+v ok=%v", ent, ok)
	}
	index = next

	if _, _, ok := ReaddirRoot(k, index); ok {
		t.Fatal("expected no more pids after init")
	}
}

// TestReaddirRootBoundaryAtMaxPid is boundary case:
// readdir root at index PROC_ROOT_LEN + MAX_PID returns "no more".
func TestReaddirRootBoundaryAtMaxPid(t *testing.T) {
	k := newTestKernel(t, kernel.KernelConfig{})
	if _, _, ok := ReaddirRoot(k, rootLen+kernel.MaxPID); ok {
		t.Fatal("readdir at PROC_ROOT_LEN+MAX_PID should report no more")
	}
}

// TestSelfSymlink is scenario 4.
func TestSelfSymlink(t *testing.T) {
	k := newTestKernel(t, kernel.KernelConfig{})
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	child, err := k.Create(init, kernel.CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}

	var self *Entry
	for _, e := range rootEntries {
		if e.Name == "self" {
			self = e
		}
	}
	if self == nil {
		t.Fatal("no self entry in root")
	}
	target := ReadlinkOf(k, self, child)
	want := strconv.Itoa(int(child.PID)) + "/"
	if target != want {
		t.Fatalf("readlink self = %q, want %q", target, want)
	}
}

// TestMountsEscaping is scenario 5.
func TestMountsEscaping(t *testing.T) {
	k := newTestKernel(t, kernel.KernelConfig{
		VFS: &platform.FakeVFS{Mnt: []platform.Mount{
			{Source: "/a b\tc\\d", Point: "", FSType: "tmpfs"},
		}},
	})
	got := string(Read(k, rootEntryNamed("mounts")))
	want := "/a\\040b\\011c\\134d / tmpfs rw 0 0\n"
	if got != want {
		t.Fatalf("mounts = %q, want %q", got, want)
	}
}

// TestLoadavgExactText is scenario 6: loads {65536, 32768,
// 16384}, 10 alive tasks, 3 blocked, 4 cpus ->
// "1.00 0.50 0.25 4/10 <last pid>\n" (running = min(4, 10-3) = 4). The
// last-pid column is whatever the namespace last allocated (10 here).
func TestLoadavgExactText(t *testing.T) {
	k := newTestKernel(t, kernel.KernelConfig{
		Telemetry: &platform.FakeTelemetry{
			Cpus: 4,
			Up:   platform.UptimeInfo{Load1m: 65536, Load5m: 32768, Load15m: 16384},
		},
	})
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	// 9 more tasks (10 alive total, including init), 3 of which sit in a
	// MAY_BLOCK region so CountBlocked reports them.
	for i := 0; i < 9; i++ {
		c, err := k.Create(init, kernel.CloneFlags{NewThreadGroup: true})
		if err != nil {
			t.Fatal(err)
		}
		if i < 3 {
			c.EnterMayBlock()
		}
	}

	if got, want := k.PIDs.CountAlive(), 10; got != want {
		t.Fatalf("alive = %d, want %d", got, want)
	}
	if got, want := k.PIDs.CountBlocked(), 3; got != want {
		t.Fatalf("blocked = %d, want %d", got, want)
	}

	got := string(showLoadavg(k))
	lastPID := k.PIDs.LastAllocatedPID()
	want := "1.00 0.50 0.25 4/10 " + strconv.Itoa(int(lastPID)) + "\n"
	if got != want {
		t.Fatalf("loadavg = %q, want %q", got, want)
	}
}

func rootEntryNamed(name string) *Entry {
	for _, e := range rootEntries {
		if e.Name == name {
			return e
		}
	}
	return nil
}
