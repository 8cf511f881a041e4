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
	"ish.dev/ish/pkg/sync"
)

// RlimitKind enumerates the resource kinds a ThreadGroup carries one
// rlimit per.
type RlimitKind int

// The subset of RLIMIT_* this core cares about; the full Linux table is
// irrelevant to task/futex/proc semantics and is not reproduced.
const (
	RlimitCPU RlimitKind = iota
	RlimitNoFile
	RlimitNProc
	RlimitCount
)

// Rlimit is a {current, max} resource-limit pair.
type Rlimit struct {
	Cur uint64
	Max uint64
}

// Unlimited is the sentinel "no limit" value.
const Unlimited = ^uint64(0)

// Rusage is the aggregate resource-usage accounting for a thread
// group: self usage plus that of its reaped children.
type Rusage struct {
	UTimeTicks uint64
	STimeTicks uint64
	MaxRSS     uint64
}

// PosixTimersMax is "up to 16 POSIX timers".
const PosixTimersMax = 16

// PosixTimer is a single POSIX interval timer owned by a ThreadGroup.
type PosixTimer struct {
	ID     int32
	Signal int32
	InUse  bool
}

// ThreadGroup is shared by every task with the same tgid.
type ThreadGroup struct {
	// Leader is immutable after creation.
	Leader *Task

	// mu guards every field below not independently commented, matching
	// lock rank 2 (ThreadGroup.lock).
	mu sync.Mutex

	members []*Task

	SID  int32
	PGID int32

	// TTY is the controlling terminal, modeled as an opaque handle: the
	// pty device itself is VFS territory and out of scope.
	TTY any

	PosixTimers [PosixTimersMax]PosixTimer
	Limits      [RlimitCount]Rlimit

	DoingGroupExit bool
	GroupExitCode  int32

	Rusage         Rusage
	ChildrenRusage Rusage

	// ChildExitCond is signaled whenever a member's child becomes a
	// zombie, waking wait4/waitpid callers.
	ChildExitCond *sync.Cond

	Personality uint32

	Stopped     bool
	StoppedCond *sync.Cond
}

// newThreadGroup allocates a ThreadGroup led by leader, with default
// rlimits (unlimited) and freshly initialized condition variables.
//
// ChildExitCond is bound to ns.mu rather than tg.mu, since the
// parent/children links Wait4 reads to find a zombie live under
// pids_lock, and a sync.Cond must share its Locker with whatever guards
// the data its waiters examine.
func newThreadGroup(leader *Task, ns *PIDNamespace) *ThreadGroup {
	tg := &ThreadGroup{
		Leader:  leader,
		members: []*Task{leader},
		SID:     leader.TGID,
		PGID:    leader.TGID,
	}
	for i := range tg.Limits {
		tg.Limits[i] = Rlimit{Cur: Unlimited, Max: Unlimited}
	}
	tg.ChildExitCond = sync.NewCond(&ns.mu)
	tg.StoppedCond = sync.NewCond(&tg.mu)
	return tg
}

// addMember appends t to the group's member list under tg.mu.
func (tg *ThreadGroup) addMember(t *Task) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.members = append(tg.members, t)
}

// removeMember drops t from the group's member list under tg.mu.
func (tg *ThreadGroup) removeMember(t *Task) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	for i, m := range tg.members {
		if m == t {
			tg.members = append(tg.members[:i], tg.members[i+1:]...)
			return
		}
	}
}

// Members returns a snapshot of the group's current member tasks.
func (tg *ThreadGroup) Members() []*Task {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	out := make([]*Task, len(tg.members))
	copy(out, tg.members)
	return out
}

// MemberCount returns len(Members()) without allocating a snapshot.
func (tg *ThreadGroup) MemberCount() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return len(tg.members)
}

// NotifyChildExit wakes every task in wait4 on this group's child_exit
// condition. Caller must hold
// the owning PIDNamespace's lock, since ChildExitCond shares it.
func (tg *ThreadGroup) NotifyChildExit() {
	tg.ChildExitCond.Broadcast()
}
