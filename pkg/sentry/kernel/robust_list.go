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
	"encoding/binary"

	"ish.dev/ish/pkg/errors/linuxerr"
)

// RobustListHeadSize is sizeof(robust_list_head) on the wire.
const RobustListHeadSize = 12

// RobustListHead is the decoded form of the guest robust_list_head
// struct, used only by the wire-format round-trip test; the fields
// themselves are opaque to this core, which never walks the guest-side
// linked list (that is userland's job after the task dies).
type RobustListHead struct {
	List          uint32
	Offset        uint32
	ListOpPending uint32
}

// EncodeRobustListHead renders h as the little-endian wire form
// sys_get_robust_list writes back to guest memory.
func EncodeRobustListHead(h RobustListHead) [RobustListHeadSize]byte {
	var buf [RobustListHeadSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.List)
	binary.LittleEndian.PutUint32(buf[4:8], h.Offset)
	binary.LittleEndian.PutUint32(buf[8:12], h.ListOpPending)
	return buf
}

// DecodeRobustListHead parses the little-endian wire form sys_set_robust_list
// reads from guest memory.
func DecodeRobustListHead(buf [RobustListHeadSize]byte) RobustListHead {
	return RobustListHead{
		List:          binary.LittleEndian.Uint32(buf[0:4]),
		Offset:        binary.LittleEndian.Uint32(buf[4:8]),
		ListOpPending: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// SetRobustList implements sys_set_robust_list(addr, len):
// rejects len != RobustListHeadSize with EINVAL, otherwise stores addr
// on the calling task.
func SetRobustList(t *Task, addr uint64, length uint32) error {
	if length != RobustListHeadSize {
		return linuxerr.EINVAL
	}
	t.generalMu.Lock()
	t.RobustList = addr
	t.generalMu.Unlock()
	return nil
}

// GetRobustList implements sys_get_robust_list(pid, &addr_out,
// &len_out): EPERM unless pid names the caller itself; this core never
// resolves another task's robust_list the way Linux optionally permits
// under CAP_SYS_PTRACE, since ptrace is out of scope.
func GetRobustList(caller *Task, pid int32) (addr uint64, length uint32, err error) {
	if pid != 0 && pid != caller.PID {
		return 0, 0, linuxerr.EPERM
	}
	caller.generalMu.Lock()
	addr = caller.RobustList
	caller.generalMu.Unlock()
	return addr, RobustListHeadSize, nil
}
