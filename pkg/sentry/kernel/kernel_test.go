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

package kernel

import (
	"testing"
	"time"

	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k := NewKernel(KernelConfig{
		Telemetry: &platform.FakeTelemetry{Cpus: 2},
		CPU:       &platform.FakeCPU{},
		VFS:       &platform.FakeVFS{},
	})
	t.Cleanup(k.Teardown)
	return k
}

func TestCreateInitTask(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	if init.PID != InitPID {
		t.Fatalf("got pid %d, want %d", init.PID, InitPID)
	}
	if !init.IsGroupLeader() {
		t.Fatal("init should be its own group leader")
	}
}

func TestCreateSecondInitFails(t *testing.T) {
	k := newTestKernel(t)
	if _, err := k.CreateInitTask(); err != nil {
		t.Fatal(err)
	}
	if _, err := k.CreateInitTask(); !linuxerr.Equals(linuxerr.EAGAIN, err) {
		t.Fatalf("got %v, want EAGAIN", err)
	}
}

func TestWait4ReapsZombieChild(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	child, err := k.Create(init, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}

	k.Exit(child, 7)
	k.Zombify(child, 7)

	pid, code, err := k.Wait4(init)
	if err != nil {
		t.Fatal(err)
	}
	if pid != child.PID || code != 7 {
		t.Fatalf("got (%d, %d), want (%d, 7)", pid, code, child.PID)
	}
}

func TestWait4BlocksUntilChildExits(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	child, err := k.Create(init, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pid, code, err := k.Wait4(init)
		if err != nil {
			t.Error(err)
		}
		if pid != child.PID || code != 3 {
			t.Errorf("got (%d, %d), want (%d, 3)", pid, code, child.PID)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	k.Exit(child, 3)
	k.Zombify(child, 3)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait4 never returned")
	}
}

func TestWait4NoChildrenIsESRCH(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.Wait4(init); !linuxerr.Equals(linuxerr.ESRCH, err) {
		t.Fatalf("got %v, want ESRCH", err)
	}
}

func TestDestroyReparentsOrphans(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	parent, err := k.Create(init, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}
	grandchild, err := k.Create(parent, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}

	k.Exit(parent, 0)
	k.Zombify(parent, 0)

	k.PIDs.mu.Lock()
	k.Destroy(parent)
	k.PIDs.mu.Unlock()

	if grandchild.Parent != init {
		t.Fatalf("grandchild should be reparented to init, got parent pid %v", grandchild.Parent)
	}

	found := false
	for _, c := range init.children {
		if c == grandchild {
			found = true
		}
	}
	if !found {
		t.Fatal("init.children should contain the reparented grandchild")
	}
}

func TestSetsidRejectsPgroupLeader(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	// init is its own pgroup leader by construction.
	if _, err := k.Setsid(init); !linuxerr.Equals(linuxerr.EPERM, err) {
		t.Fatalf("got %v, want EPERM", err)
	}
}

func TestSetsidSucceedsForNonLeader(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	child, err := k.Create(init, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}
	// child shares init's session/pgroup, so it is not its own pgroup leader.
	sid, err := k.Setsid(child)
	if err != nil {
		t.Fatal(err)
	}
	if sid != child.TGID || child.Group.SID != child.TGID || child.Group.PGID != child.TGID {
		t.Fatalf("setsid did not install a fresh session/pgroup: sid=%d group=%+v", sid, child.Group)
	}
}

func TestVforkNotifyWakesParent(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	child, err := k.Create(init, CloneFlags{NewThreadGroup: true, Vfork: true})
	if err != nil {
		t.Fatal(err)
	}
	if child.Vfork == nil {
		t.Fatal("expected vfork handoff record")
	}

	done := make(chan struct{})
	go func() {
		child.Vfork.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	k.VforkNotify(child)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("VforkNotify never woke the waiting parent")
	}
}
