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
	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sentry/kernel"
)

// pidEntries lists the per-pid subtree's children. These renderers
// cover the fields this core actually tracks and leave exact
// Linux-compatible contents to a fuller VFS integration.
var pidEntries = []*Entry{
	{Name: "cmdline", Kind: PidLeaf, ShowPid: showPidCmdline},
	{Name: "fd", Kind: Dir, Children: nil},
	{Name: "maps", Kind: PidLeaf, ShowPid: showPidMaps},
	{Name: "stat", Kind: PidLeaf, ShowPid: showPidStat},
	{Name: "status", Kind: PidLeaf, ShowPid: showPidStatus},
}

// PidEntries returns the static child list of a pid directory, sorted
// alphabetically like the root.
func PidEntries() []*Entry {
	return sortedChildren(pidEntries)
}

func taskState(snap kernel.TaskSnapshot) byte {
	switch {
	case snap.Zombie:
		return 'Z'
	case snap.Exiting:
		return 'X'
	default:
		return 'R'
	}
}

// showPidStatus implements <pid>/status: a Name/State/Pid/PPid/Tgid
// block, the subset of Linux's richer status file this core can
// actually back.
func showPidStatus(k *kernel.Kernel, pid int32) ([]byte, error) {
	snap, ok := k.PIDs.Snapshot(pid)
	if !ok {
		return nil, linuxerr.ESRCH
	}
	p := &printer{}
	p.printf("Name:\t%s\n", snap.Comm)
	p.printf("State:\t%c\n", taskState(snap))
	p.printf("Pid:\t%d\n", snap.PID)
	p.printf("PPid:\t%d\n", snap.PPID)
	p.printf("Tgid:\t%d\n", snap.TGID)
	return p.bytes(), nil
}

// showPidStat implements <pid>/stat: the space-separated fields ps/top
// parse, truncated to the ones this core tracks (pid, comm, state,
// ppid).
func showPidStat(k *kernel.Kernel, pid int32) ([]byte, error) {
	snap, ok := k.PIDs.Snapshot(pid)
	if !ok {
		return nil, linuxerr.ESRCH
	}
	p := &printer{}
	p.printf("%d (%s) %c %d\n", snap.PID, snap.Comm, taskState(snap), snap.PPID)
	return p.bytes(), nil
}

// showPidCmdline implements <pid>/cmdline. This core does not retain a
// task's argv, so
// the file reads back empty, matching Linux's behavior for a kernel
// thread with no command line.
func showPidCmdline(k *kernel.Kernel, pid int32) ([]byte, error) {
	if _, ok := k.PIDs.Snapshot(pid); !ok {
		return nil, linuxerr.ESRCH
	}
	return nil, nil
}

// showPidMaps implements <pid>/maps. This core has no VMA list, so the
// rendering is empty; a real VFS integration would source this from
// MemorySpace instead.
func showPidMaps(k *kernel.Kernel, pid int32) ([]byte, error) {
	if _, ok := k.PIDs.Snapshot(pid); !ok {
		return nil, linuxerr.ESRCH
	}
	return nil, nil
}
