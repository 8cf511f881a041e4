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

// VforkNotify implements vfork_notify(task): sets
// vfork->done=true and signals its condition, resuming a parent blocked
// in VforkInfo.Wait after the vfork child execs or exits. A no-op if t
// was not created with the Vfork clone flag.
func (k *Kernel) VforkNotify(t *Task) {
	v := t.Vfork
	if v == nil {
		return
	}
	v.mu.Lock()
	v.done = true
	v.cond.Broadcast()
	v.mu.Unlock()
}
