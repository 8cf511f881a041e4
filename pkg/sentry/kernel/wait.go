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

// Wait4 blocks caller until one of its children becomes a zombie, then
// reaps it and returns the reaped child's pid
// and exit code. It is a suspension point. Returns EINTR if caller is
// exiting (see Exit), ESRCH if caller has no children.
//
// children, like the rest of the parent/child/sibling links, is guarded
// by the PIDNamespace lock, so Wait4 takes that lock
// directly rather than ThreadGroup.lock; ChildExitCond is constructed
// bound to the same lock (see newThreadGroup).
func (k *Kernel) Wait4(caller *Task) (pid int32, exitCode int32, err error) {
	ns := k.PIDs
	cond := caller.Group.ChildExitCond

	ns.mu.Lock()
	for {
		if z := findZombieChild(caller); z != nil {
			k.Destroy(z)
			ns.mu.Unlock()
			return z.PID, z.ExitCode, nil
		}
		if !hasChildren(caller) {
			ns.mu.Unlock()
			return 0, 0, linuxerr.ESRCH
		}
		if caller.exiting {
			ns.mu.Unlock()
			return 0, 0, linuxerr.EINTR
		}
		release := caller.RecordWait(cond)
		cond.Wait()
		release()
	}
}

func findZombieChild(t *Task) *Task {
	for _, c := range t.children {
		if c.Zombie() {
			return c
		}
	}
	return nil
}

func hasChildren(t *Task) bool { return len(t.children) > 0 }
