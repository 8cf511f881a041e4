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

import "ish.dev/ish/pkg/sentry/kernel"

// rootEntries is the static /proc root entry table, alphabetical.
// ish/, net/, and sys/ are implementation-specific and sysctl-style
// subtrees respectively; they are modeled as empty directories here
// since nothing in this core injects children into them.
var rootEntries = []*Entry{
	{Name: "cpuinfo", Kind: Leaf, Show: showCPUInfo},
	{Name: "diskstats", Kind: Leaf, Show: showDiskstats},
	{Name: "filesystems", Kind: Leaf, Show: showFilesystems},
	{Name: "ish", Kind: Dir, Children: nil},
	{Name: "loadavg", Kind: Leaf, Show: showLoadavg},
	{Name: "meminfo", Kind: Leaf, Show: showMeminfo},
	{Name: "mounts", Kind: Leaf, Show: showMounts},
	{Name: "net", Kind: Dir, Children: nil},
	{Name: "self", Kind: Symlink, Readlink: readlinkSelf},
	{Name: "stat", Kind: Leaf, Show: showStat},
	{Name: "sys", Kind: Dir, Children: nil},
	{Name: "uptime", Kind: Leaf, Show: showUptime},
	{Name: "version", Kind: Leaf, Show: showVersion},
	{Name: "vmstat", Kind: Leaf, Show: showVmstat},
}

// rootLen is the static-entry count that offsets the pid-scanning half
// of root readdir's index space.
var rootLen = len(rootEntries)

// Root returns the / directory entry. The entry itself carries no
// children; listing / goes through ReaddirRoot, which mixes rootEntries
// with one entry per live task.
func Root() *Entry {
	return &Entry{Name: "", Kind: Dir}
}

// DirEnt is one readdir result: either a static Entry or a pid, never
// both.
type DirEnt struct {
	Static *Entry
	Pid    int32
}

// ReaddirRoot implements the root readdir contract: first emit the
// static entries in alphabetical order at indices 0..N-1. For index >=
// N, interpret index-N as "last pid seen" and scan forward in the
// alive-pid list until a task is found, returning its pid entry and
// updating the opaque index to pid+N. ok is false at end of directory.
func ReaddirRoot(k *kernel.Kernel, index int) (ent *DirEnt, nextIndex int, ok bool) {
	sorted := sortedChildren(rootEntries)
	if index < rootLen {
		return &DirEnt{Static: sorted[index]}, index + 1, true
	}

	lastSeen := int32(index - rootLen)
	pid, found := k.PIDs.NextAlivePID(lastSeen)
	if !found || pid > kernel.MaxPID {
		return nil, index, false
	}
	return &DirEnt{Pid: pid}, int(pid) + rootLen, true
}
