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

import "ish.dev/ish/pkg/errors/linuxerr"

// Setsid implements setsid(task): makes caller's thread
// group the leader of a new session and a new process group, both
// named after its own tgid. Returns EPERM if caller is already a
// process group leader, the usual POSIX constraint.
func (k *Kernel) Setsid(caller *Task) (int32, error) {
	ns := k.PIDs
	ns.mu.Lock()
	defer ns.mu.Unlock()

	tg := caller.Group
	if tg.isPgroupLeader() {
		return 0, linuxerr.EPERM
	}

	ns.removeFromSession(tg.SID, tg)
	ns.removeFromPgroup(tg.PGID, tg)

	tg.SID = tg.Leader.TGID
	tg.PGID = tg.Leader.TGID
	tg.TTY = nil

	ns.addToSession(tg.SID, tg)
	ns.addToPgroup(tg.PGID, tg)
	return tg.SID, nil
}

// LeaveSession implements leave_session(task): detaches
// caller's thread group from its controlling terminal without forming a
// new session, used by daemonizing processes that want to drop their
// tty but keep their existing session and pgroup membership.
func (k *Kernel) LeaveSession(caller *Task) {
	ns := k.PIDs
	ns.mu.Lock()
	defer ns.mu.Unlock()
	caller.Group.TTY = nil
}
