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

import "ish.dev/ish/pkg/log"

// Exit implements the RUNNABLE→EXITING lifecycle transition: sets
// Exiting and wakes every queue the task
// presently sits on via its wait slot, so any futex wait or wait4 it is
// blocked in returns promptly instead of waiting out a long or absent
// timeout.
func (k *Kernel) Exit(t *Task, code int32) {
	ns := k.PIDs
	ns.mu.Lock()
	t.exiting = true
	ns.mu.Unlock()
	t.ForceWake()
	_ = code
}

// Zombify implements the EXITING→ZOMBIE transition: the task releases
// every resource except its pid record and Task struct, zombie is set,
// exit_code is latched, and the parent's thread group is notified via
// child_exit.
func (k *Kernel) Zombify(t *Task, exitCode int32) {
	ns := k.PIDs
	ns.mu.Lock()
	if t.Files != nil {
		t.Files.DecRef()
		t.Files = nil
	}
	if t.FS != nil {
		t.FS.DecRef()
		t.FS = nil
	}
	t.mm = nil
	t.ExitCode = exitCode
	t.zombie = true
	ns.markZombie(t.PID)
	if t.Parent != nil {
		t.Parent.Group.NotifyChildExit()
	}
	ns.mu.Unlock()
}

// Destroy tears a task down for good: must be called
// holding the pids lock. It removes the task from its thread group,
// parent child-list, session, and pgroup lists, frees its pid record if
// no zombie reference remains, and blocks while critical_region.count >
// 0.
//
// Preconditions: k.PIDs.mu is held by the caller.
func (k *Kernel) Destroy(t *Task) {
	ns := k.PIDs
	ns.mu.Unlock()
	t.waitForCriticalRegionClear()
	ns.mu.Lock()

	t.Group.removeMember(t)
	if t.Parent != nil {
		removeChild(t.Parent, t)
		reparentChildren(t, k.initTask)
	}
	if t.Group.MemberCount() == 0 {
		ns.removeFromSession(t.Group.SID, t.Group)
		ns.removeFromPgroup(t.Group.PGID, t.Group)
	}
	ns.release(t.PID)
	log.Debugf("kernel: destroyed pid %d", t.PID)
}

func removeChild(parent, child *Task) {
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// reparentChildren moves every remaining child of t onto init, the way
// orphaned children get adopted once their parent's wait primitive runs
// out of takers. If init itself no longer exists (e.g. in unit tests
// that never created one), orphans simply keep their stale parent
// pointer; nothing in this core dereferences it after the parent is
// destroyed.
func reparentChildren(t, init *Task) {
	if init == nil || len(t.children) == 0 {
		return
	}
	for _, c := range t.children {
		c.Parent = init
		init.children = append(init.children, c)
	}
	t.children = nil
}
