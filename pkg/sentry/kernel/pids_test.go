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

	"ish.dev/ish/pkg/errors/linuxerr"
)

// TestAllocatePIDWrapsSkippingZeroAndOne exercises
// rotating search directly: once nextPID would exceed MaxPID, the
// cursor wraps to 2, never handing out 0 or 1 again while init holds
// pid 1.
func TestAllocatePIDWrapsSkippingZeroAndOne(t *testing.T) {
	ns := NewPIDNamespace()
	ns.reservePID(InitPID, nil)
	ns.nextPID = MaxPID

	pid, err := ns.allocatePID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != MaxPID {
		t.Fatalf("got %d, want %d", pid, MaxPID)
	}
	if ns.nextPID != 2 {
		t.Fatalf("cursor should have wrapped to 2, got %d", ns.nextPID)
	}

	pid, err = ns.allocatePID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != 2 {
		t.Fatalf("got %d, want 2 (0 and 1 must be skipped)", pid)
	}
}

// TestAllocatePIDExhaustionIsEAGAIN fills every slot and confirms the
// rotating search reports EAGAIN rather than looping forever.
func TestAllocatePIDExhaustionIsEAGAIN(t *testing.T) {
	ns := NewPIDNamespace()
	for pid := int32(1); pid <= MaxPID; pid++ {
		ns.reservePID(pid, nil)
	}
	ns.nextPID = 1
	if _, err := ns.allocatePID(); !linuxerr.Equals(linuxerr.EAGAIN, err) {
		t.Fatalf("got %v, want EAGAIN", err)
	}
}

// TestAllocatePIDSkipsUsedSlots confirms the search steps over pids
// already reserved by an earlier, non-wrapping allocation.
func TestAllocatePIDSkipsUsedSlots(t *testing.T) {
	ns := NewPIDNamespace()
	ns.nextPID = 10
	ns.reservePID(10, nil)
	ns.reservePID(11, nil)

	pid, err := ns.allocatePID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != 12 {
		t.Fatalf("got %d, want 12", pid)
	}
}

func TestCountAliveAndBlocked(t *testing.T) {
	k := newTestKernel(t)
	init, err := k.CreateInitTask()
	if err != nil {
		t.Fatal(err)
	}
	if got := k.PIDs.CountAlive(); got != 1 {
		t.Fatalf("alive = %d, want 1", got)
	}

	a, err := k.Create(init, CloneFlags{NewThreadGroup: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := k.Create(init, CloneFlags{NewThreadGroup: true}); err != nil {
		t.Fatal(err)
	}
	if got := k.PIDs.CountAlive(); got != 3 {
		t.Fatalf("alive = %d, want 3", got)
	}
	if got := k.PIDs.CountBlocked(); got != 0 {
		t.Fatalf("blocked = %d, want 0", got)
	}

	a.EnterMayBlock()
	if got := k.PIDs.CountBlocked(); got != 1 {
		t.Fatalf("blocked = %d, want 1", got)
	}
	a.ExitMayBlock()
	if got := k.PIDs.CountBlocked(); got != 0 {
		t.Fatalf("blocked = %d, want 0 after ExitMayBlock", got)
	}
}

// TestSessionPgroupBookkeeping exercises addToSession/removeFromSession
// and addToPgroup/removeFromPgroup directly: membership sets are created
// lazily and torn down once empty.
func TestSessionPgroupBookkeeping(t *testing.T) {
	ns := NewPIDNamespace()
	tg1 := &ThreadGroup{}
	tg2 := &ThreadGroup{}

	ns.addToSession(5, tg1)
	ns.addToSession(5, tg2)
	if len(ns.sessions[5]) != 2 {
		t.Fatalf("session 5 should have 2 members, got %d", len(ns.sessions[5]))
	}

	ns.removeFromSession(5, tg1)
	if len(ns.sessions[5]) != 1 {
		t.Fatalf("session 5 should have 1 member left, got %d", len(ns.sessions[5]))
	}

	ns.removeFromSession(5, tg2)
	if _, ok := ns.sessions[5]; ok {
		t.Fatal("session 5 should have been removed once empty")
	}

	ns.addToPgroup(7, tg1)
	if len(ns.pgroups[7]) != 1 {
		t.Fatalf("pgroup 7 should have 1 member, got %d", len(ns.pgroups[7]))
	}
	ns.removeFromPgroup(7, tg1)
	if _, ok := ns.pgroups[7]; ok {
		t.Fatal("pgroup 7 should have been removed once empty")
	}
}
