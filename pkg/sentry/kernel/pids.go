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
	"github.com/google/btree"

	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sync"
)

// taskTableMutex is pids_lock.
type taskTableMutex = sync.Mutex

// MaxPID is the largest pid this namespace will ever hand out.
const MaxPID = 1 << 15

// InitPID is the pid reserved for guest init and never recycled while
// init lives.
const InitPID int32 = 1

// pidItem adapts a bare pid for ordered storage in a btree.BTree, giving
// the /proc root readdir's "scan forward from the last pid seen" an
// O(log n) successor lookup instead of a linear list walk over every
// live task.
type pidItem int32

func (p pidItem) Less(than btree.Item) bool { return p < than.(pidItem) }

// pidEntry is the lightweight per-pid descriptor: an id and the owning
// task (the entry is deleted once reaped). Session/pgroup membership is tracked
// out-of-line in PIDNamespace's sessions/pgroups indices rather than as
// intrusive list links, since Go has no equivalent of a generated
// intrusive-list package for this core.
type pidEntry struct {
	id   int32
	task *Task // nil is never stored; entries are deleted instead
}

// PIDNamespace owns every live and zombie task, pid, session, and
// process group in the system. There is exactly one PIDNamespace per
// Kernel; the pid namespace concept is not nested in this core.
type PIDNamespace struct {
	// mu is pids_lock: it covers the task/pid
	// tables and every list head hung off them.
	mu taskTableMutex

	byPID map[int32]*pidEntry

	// alive indexes pids of non-zombie tasks only, ascending, backing
	// /proc root readdir and the alive/blocked counters.
	alive *btree.BTree

	// sessions/pgroups index thread groups by session id / process
	// group id.
	sessions map[int32]map[*ThreadGroup]struct{}
	pgroups  map[int32]map[*ThreadGroup]struct{}

	nextPID       int32
	lastAllocated int32
}

// NewPIDNamespace returns an empty namespace.
func NewPIDNamespace() *PIDNamespace {
	return &PIDNamespace{
		byPID:    make(map[int32]*pidEntry),
		alive:    btree.New(32),
		sessions: make(map[int32]map[*ThreadGroup]struct{}),
		pgroups:  make(map[int32]map[*ThreadGroup]struct{}),
		nextPID:  InitPID,
	}
}

// allocatePID implements a rotating-search allocator: advance a
// next_pid cursor, wrapping at MaxPID and skipping 0 and 1 on wrap,
// until an unused slot is found. Returns EAGAIN once every slot has
// been tried. Must be called with mu held.
func (ns *PIDNamespace) allocatePID() (int32, error) {
	candidate := ns.nextPID
	for tries := 0; tries < MaxPID; tries++ {
		if _, used := ns.byPID[candidate]; !used {
			ns.nextPID = candidate + 1
			if ns.nextPID > MaxPID {
				ns.nextPID = 2 // skip 0 and 1 on wrap
			}
			ns.lastAllocated = candidate
			return candidate, nil
		}
		candidate++
		if candidate > MaxPID {
			candidate = 2
		}
	}
	return 0, linuxerr.EAGAIN
}

// reservePID records a task under pid, used both by normal allocation
// and by the fixed pid-1 assignment for init.
func (ns *PIDNamespace) reservePID(pid int32, t *Task) {
	ns.byPID[pid] = &pidEntry{id: pid, task: t}
	ns.alive.ReplaceOrInsert(pidItem(pid))
}

// PIDGet returns the task at id, or nil for a zombie or absent pid.
// Caller must hold the namespace lock.
func (ns *PIDNamespace) PIDGet(id int32) *Task {
	e, ok := ns.byPID[id]
	if !ok || e.task == nil || e.task.Zombie() {
		return nil
	}
	return e.task
}

// PIDGetTask is an alias of PIDGet matching the original pid_get_task name.
func (ns *PIDNamespace) PIDGetTask(id int32) *Task { return ns.PIDGet(id) }

// PIDGetTaskIncludingZombies returns the task at id even if it is a
// zombie, or nil if the pid is unused.
func (ns *PIDNamespace) PIDGetTaskIncludingZombies(id int32) *Task {
	e, ok := ns.byPID[id]
	if !ok {
		return nil
	}
	return e.task
}

// Lookup is PIDGetTaskIncludingZombies with its own locking, for
// collaborators outside this package (the /proc per-pid subtree) that
// cannot take ns.mu directly.
func (ns *PIDNamespace) Lookup(id int32) *Task {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.PIDGetTaskIncludingZombies(id)
}

// TaskSnapshot is a point-in-time, race-free copy of the fields the
// /proc per-pid subtree renders, taken under ns.mu since Parent and the
// zombie/exiting flags are otherwise guarded by that lock.
type TaskSnapshot struct {
	PID     int32
	PPID    int32
	TGID    int32
	Comm    string
	Zombie  bool
	Exiting bool
}

// Snapshot returns a TaskSnapshot for pid, or ok=false if the pid names
// no task.
func (ns *PIDNamespace) Snapshot(pid int32) (TaskSnapshot, bool) {
	ns.mu.Lock()
	t := ns.PIDGetTaskIncludingZombies(pid)
	if t == nil {
		ns.mu.Unlock()
		return TaskSnapshot{}, false
	}
	var ppid int32
	if t.Parent != nil {
		ppid = t.Parent.PID
	}
	snap := TaskSnapshot{
		PID:     t.PID,
		PPID:    ppid,
		TGID:    t.TGID,
		Zombie:  t.zombie,
		Exiting: t.exiting,
	}
	ns.mu.Unlock()
	snap.Comm = t.Comm()
	return snap, true
}

// LastAllocatedPID returns the most recently assigned pid, for
// /proc/loadavg's last-pid column.
func (ns *PIDNamespace) LastAllocatedPID() int32 {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.lastAllocated
}

// CountAlive returns the number of non-zombie tasks.
func (ns *PIDNamespace) CountAlive() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.alive.Len()
}

// CountBlocked returns the number of non-zombie tasks with IOBlock set:
// computed by scanning, not a maintained counter, trading CPU for
// simplicity since this count is read rarely (once per /proc/loadavg
// or /proc/stat read).
func (ns *PIDNamespace) CountBlocked() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	blocked := 0
	ns.alive.Ascend(func(i btree.Item) bool {
		pid := int32(i.(pidItem))
		if e := ns.byPID[pid]; e != nil && e.task != nil && e.task.IOBlock() {
			blocked++
		}
		return true
	})
	return blocked
}

// nextAlivePID returns the smallest alive pid > after, and whether one
// exists. Backs /proc root readdir's forward scan. Caller
// must hold ns.mu.
func (ns *PIDNamespace) nextAlivePID(after int32) (int32, bool) {
	var found int32
	ok := false
	ns.alive.AscendGreaterOrEqual(pidItem(after+1), func(i btree.Item) bool {
		found = int32(i.(pidItem))
		ok = true
		return false
	})
	return found, ok
}

// NextAlivePID is nextAlivePID with its own locking, for the proc
// package's root readdir, which lives outside this package and so
// cannot take ns.mu directly. Bracketing the scan in the namespace lock
// keeps a concurrent Destroy from freeing the pid entry out from under
// the scan.
func (ns *PIDNamespace) NextAlivePID(after int32) (int32, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.nextAlivePID(after)
}

// markZombie removes pid from the alive index but keeps the pidEntry (and
// its task pointer) reachable until reaped.
func (ns *PIDNamespace) markZombie(pid int32) {
	ns.alive.Delete(pidItem(pid))
}

// release drops the pid entry entirely once no zombie reference
// remains.
func (ns *PIDNamespace) release(pid int32) {
	delete(ns.byPID, pid)
	ns.alive.Delete(pidItem(pid))
}

func (ns *PIDNamespace) addToSession(sid int32, tg *ThreadGroup) {
	set, ok := ns.sessions[sid]
	if !ok {
		set = make(map[*ThreadGroup]struct{})
		ns.sessions[sid] = set
	}
	set[tg] = struct{}{}
}

func (ns *PIDNamespace) removeFromSession(sid int32, tg *ThreadGroup) {
	set, ok := ns.sessions[sid]
	if !ok {
		return
	}
	delete(set, tg)
	if len(set) == 0 {
		delete(ns.sessions, sid)
	}
}

func (ns *PIDNamespace) addToPgroup(pgid int32, tg *ThreadGroup) {
	set, ok := ns.pgroups[pgid]
	if !ok {
		set = make(map[*ThreadGroup]struct{})
		ns.pgroups[pgid] = set
	}
	set[tg] = struct{}{}
}

func (ns *PIDNamespace) removeFromPgroup(pgid int32, tg *ThreadGroup) {
	set, ok := ns.pgroups[pgid]
	if !ok {
		return
	}
	delete(set, tg)
	if len(set) == 0 {
		delete(ns.pgroups, pgid)
	}
}

// isPgroupLeader reports whether tg's pgid equals its own SID-rooted
// leader pid, i.e. whether tg is the process group leader. Used by
// Setsid's POSIX constraint.
func (tg *ThreadGroup) isPgroupLeader() bool {
	return tg.PGID == tg.Leader.TGID
}
