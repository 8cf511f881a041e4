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

// Package kernel implements the guest-task and synchronization core:
// the task/process/thread-group model, the futex engine's task-facing
// half (the rest lives in the futex subpackage), and the pid/session/
// pgroup bookkeeping the /proc projection reads.
package kernel

import (
	"ish.dev/ish/pkg/sentry/kernel/auth"
	"ish.dev/ish/pkg/sentry/kernel/platform"
	"ish.dev/ish/pkg/sync"
)

// CommLen is the command-name field length: 15 chars plus a NUL.
const CommLen = 16

// VforkInfo is the handoff record present iff the task is the child of
// an in-flight vfork. The original clone() call stack allocated this on
// the parent's stack; here it is a regular heap value shared between
// parent and child via a pointer, the Go-idiomatic equivalent.
type VforkInfo struct {
	mu   sync.Mutex
	cond *sync.Cond
	done bool
}

func newVforkInfo() *VforkInfo {
	v := &VforkInfo{}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// Wait blocks until the vfork child execs or exits (done is set by
// Kernel.VforkNotify).
func (v *VforkInfo) Wait() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for !v.done {
		v.cond.Wait()
	}
}

// waitSlot is the current-wait slot: the (cond, lock) pair a blocked
// task is presently waiting on, recorded so asynchronous signal
// delivery can wake it.
type waitSlot struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// Task is a guest thread.
type Task struct {
	// PID and TGID are immutable after creation. TGID == PID for the
	// thread-group leader.
	PID  int32
	TGID int32

	Creds *auth.Credentials

	// generalMu is Task.general_lock: guards Comm
	// and MM.
	generalMu sync.Mutex
	comm      [CommLen]byte
	mm        platform.MemorySpace

	// Group is immutable after creation.
	Group *ThreadGroup

	Files *FDTable
	FS    *FSContext

	// Signal state, guarded elsewhere by Group's sighand lock;
	// collapsed onto generalMu here since this core does not implement
	// signal delivery mechanics and only needs these fields to exist and
	// be race-free for the wait-slot interop contract.
	pending     uint64
	blocked     uint64
	waitingMask uint64
	hasWaiting  bool
	sigQueue    []int32

	ClearTID    uint64
	RobustList  uint64

	critMu    sync.Mutex
	critCount int
	critCond  *sync.Cond

	locksHeldMu sync.Mutex
	locksHeld   int

	ioBlockMu sync.Mutex
	ioBlock   bool

	Vfork *VforkInfo

	// Parent/children/siblings are guarded by the owning PIDNamespace's
	// mu.
	Parent   *Task
	children []*Task

	ExitCode int32
	zombie   bool
	exiting  bool

	wait waitSlot

	ns *PIDNamespace
}

// Comm returns the current command name.
func (t *Task) Comm() string {
	t.generalMu.Lock()
	defer t.generalMu.Unlock()
	return cString(t.comm[:])
}

// SetComm mutates the command name under Task.general_lock, truncating
// to CommLen-1 bytes plus NUL.
func (t *Task) SetComm(name string) {
	t.generalMu.Lock()
	defer t.generalMu.Unlock()
	var buf [CommLen]byte
	n := copy(buf[:CommLen-1], name)
	_ = n
	t.comm = buf
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// MemorySpace returns the task's guest address space.
func (t *Task) MemorySpace() platform.MemorySpace {
	t.generalMu.Lock()
	defer t.generalMu.Unlock()
	return t.mm
}

// SetMemorySpace installs mm as the task's address space.
func (t *Task) SetMemorySpace(mm platform.MemorySpace) {
	t.generalMu.Lock()
	defer t.generalMu.Unlock()
	t.mm = mm
}

// IsGroupLeader reports whether t is its ThreadGroup's leader
// (task_is_leader).
func (t *Task) IsGroupLeader() bool { return t.Group.Leader == t }

// EnterCriticalRegion increments the critical-region counter: while positive, task_destroy must not run.
func (t *Task) EnterCriticalRegion() {
	t.critMu.Lock()
	t.critCount++
	t.critMu.Unlock()
}

// ExitCriticalRegion decrements the counter and wakes any destroyer
// waiting for it to reach zero.
func (t *Task) ExitCriticalRegion() {
	t.critMu.Lock()
	t.critCount--
	if t.critCount < 0 {
		panic("kernel: critical_region count went negative")
	}
	if t.critCount == 0 {
		t.critCond.Broadcast()
	}
	t.critMu.Unlock()
}

// waitForCriticalRegionClear blocks until critCount reaches zero, the
// condition-variable equivalent of the busy-wait destroy() performs
// while a task is mid critical-region.
func (t *Task) waitForCriticalRegionClear() {
	t.critMu.Lock()
	for t.critCount > 0 {
		t.critCond.Wait()
	}
	t.critMu.Unlock()
}

// EnterMayBlock marks the task as inside a MAY_BLOCK region, named
// after task_may_block_start/end rather than the TASK_MAY_BLOCK
// statement macro, which Go has no equivalent of.
func (t *Task) EnterMayBlock() {
	t.EnterCriticalRegion()
	t.ioBlockMu.Lock()
	t.ioBlock = true
	t.ioBlockMu.Unlock()
}

// ExitMayBlock clears io_block and leaves the critical region.
func (t *Task) ExitMayBlock() {
	t.ioBlockMu.Lock()
	t.ioBlock = false
	t.ioBlockMu.Unlock()
	t.ExitCriticalRegion()
}

// IOBlock reports whether the task is presently inside a MAY_BLOCK
// region.
func (t *Task) IOBlock() bool {
	t.ioBlockMu.Lock()
	defer t.ioBlockMu.Unlock()
	return t.ioBlock
}

// Zombie reports whether the task has completed the EXITING→ZOMBIE
// transition. Caller must hold the owning namespace's lock, matching
// every other zombie/exiting read in this core.
func (t *Task) Zombie() bool { return t.zombie }

// Exiting reports whether exit()/exit_group() has been called.
func (t *Task) Exiting() bool { return t.exiting }

// RecordWait stashes (cond, lock) as the task's current wait slot before
// blocking, so ForceWake below can find it. Returns a release func the caller must defer.
func (t *Task) RecordWait(cond *sync.Cond) func() {
	t.wait.mu.Lock()
	t.wait.cond = cond
	t.wait.mu.Unlock()
	return func() {
		t.wait.mu.Lock()
		t.wait.cond = nil
		t.wait.mu.Unlock()
	}
}

// ForceWake signals whatever condition the task is currently blocked on,
// if any. This is how fatal-signal delivery unwinds a blocked task
// without the futex engine (or any other blocking subsystem) knowing
// about signals.
func (t *Task) ForceWake() {
	t.wait.mu.Lock()
	defer t.wait.mu.Unlock()
	if t.wait.cond != nil {
		t.wait.cond.Broadcast()
	}
}
