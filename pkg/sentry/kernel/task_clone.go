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
	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sentry/kernel/auth"
	"ish.dev/ish/pkg/sync"
)

// CloneFlags selects what a new task shares with its parent, mirroring
// the clone(2) sharing flags: mm, fs, files, and whether a new
// thread group (rather than a new thread in the caller's) is formed.
type CloneFlags struct {
	ShareMM        bool
	ShareFS        bool
	ShareFiles     bool
	NewThreadGroup bool
	Vfork          bool
}

// Create allocates a new task. If parent is nil, it creates pid 1
// (guest init); otherwise it clones fields from parent per flags.
// Returns EAGAIN if pid 1 already exists (nil parent) or the pid space
// is exhausted.
func (k *Kernel) Create(parent *Task, flags CloneFlags) (*Task, error) {
	ns := k.PIDs
	ns.mu.Lock()
	defer ns.mu.Unlock()

	var pid int32
	var err error
	if parent == nil {
		if _, used := ns.byPID[InitPID]; used {
			return nil, linuxerr.EAGAIN
		}
		pid = InitPID
		ns.nextPID = InitPID + 1
		ns.lastAllocated = InitPID
	} else {
		pid, err = ns.allocatePID()
		if err != nil {
			return nil, err
		}
	}

	t := &Task{
		PID: pid,
		ns:  ns,
	}
	t.critCond = sync.NewCond(&t.critMu)

	switch {
	case parent == nil:
		t.TGID = pid
		t.Creds = auth.NewRootCredentials()
		t.Group = newThreadGroup(t, ns)
		ns.addToSession(t.Group.SID, t.Group)
		ns.addToPgroup(t.Group.PGID, t.Group)
		t.Files = NewFDTable()
		t.FS = NewFSContext()
	case flags.NewThreadGroup:
		t.TGID = pid
		t.Creds = parent.Creds.Fork()
		t.Group = newThreadGroup(t, ns)
		// A new thread group still inherits its parent's rlimits and
		// session/pgroup membership (fork() semantics), only posix
		// timers and the group-exit state start fresh.
		t.Group.Limits = parent.Group.Limits
		t.Group.SID = parent.Group.SID
		t.Group.PGID = parent.Group.PGID
		ns.addToSession(t.Group.SID, t.Group)
		ns.addToPgroup(t.Group.PGID, t.Group)
		t.Files = cloneFDTable(parent, flags.ShareFiles)
		t.FS = cloneFSContext(parent, flags.ShareFS)
	default:
		t.TGID = parent.TGID
		t.Creds = parent.Creds.Fork()
		t.Group = parent.Group
		t.Group.addMember(t)
		t.Files = cloneFDTable(parent, flags.ShareFiles)
		t.FS = cloneFSContext(parent, flags.ShareFS)
	}

	if parent != nil {
		if flags.ShareMM {
			t.mm = parent.MemorySpace()
		}
		t.Parent = parent
		parent.children = append(parent.children, t)
		if flags.Vfork {
			t.Vfork = newVforkInfo()
		}
	}

	ns.reservePID(pid, t)
	if parent == nil {
		k.initTask = t
	}
	return t, nil
}

func cloneFDTable(parent *Task, share bool) *FDTable {
	if share {
		parent.Files.IncRef()
		return parent.Files
	}
	return NewFDTable()
}

func cloneFSContext(parent *Task, share bool) *FSContext {
	if share {
		parent.FS.IncRef()
		return parent.FS
	}
	return parent.FS.Fork()
}
