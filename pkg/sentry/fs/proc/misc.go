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
	"fmt"

	"ish.dev/ish/pkg/sentry/kernel"
)

// showVersion implements /proc/version: "<system> version <release>
// <version>\n", sourced from the CPU collaborator's Uname.
func showVersion(k *kernel.Kernel) []byte {
	uts := k.CPU.Uname()
	p := &printer{}
	p.printf("%s version %s %s\n", uts.System, uts.Release, uts.Version)
	return p.bytes()
}

// showFilesystems implements /proc/filesystems, verbatim output of the
// VFS collaborator.
func showFilesystems(k *kernel.Kernel) []byte {
	return []byte(k.VFS.Filesystems())
}

// showVmstat implements /proc/vmstat as a stub returning no content:
// nothing in this core tracks vm statistics, so the projection stays
// empty rather than fabricating numbers.
func showVmstat(k *kernel.Kernel) []byte {
	return nil
}

// showDiskstats implements /proc/diskstats with a single synthetic
// block device line: this core has no block device layer to report
// real per-partition statistics on.
func showDiskstats(k *kernel.Kernel) []byte {
	return []byte("8       0 disk1 1 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n")
}

// readlinkSelf implements /proc/self:
// readlink target is the caller's own pid directory.
func readlinkSelf(k *kernel.Kernel, caller *kernel.Task) string {
	return fmt.Sprintf("%d/", caller.PID)
}
