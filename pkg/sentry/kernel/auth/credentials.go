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

// Package auth holds the per-task credential record and the privilege
// check it backs.
package auth

import (
	"github.com/mohae/deepcopy"
	"github.com/syndtr/gocapability/capability"
)

// MaxGroups is the maximum supplementary group list length.
const MaxGroups = 32

// KUID and KGID are guest-visible user/group ids.
type KUID uint32
type KGID uint32

// RootUID is the guest's superuser id.
const RootUID KUID = 0

// Credentials is the immutable-once-constructed identity of a task,
// mutated only by setuid/setgid family syscalls external to this core.
type Credentials struct {
	UID  KUID
	GID  KGID
	EUID KUID
	EGID KGID
	SUID KUID
	SGID KGID

	// Groups is the supplementary group list, length <= MaxGroups.
	Groups []KGID

	// effective is the synthesized capability set used by HasCapability.
	// Real gocapability host-capability syscalls (NewPid2/Apply) are
	// deliberately never invoked here: the guest's privilege model is
	// uid-based, not the host's actual process
	// capabilities, so only the library's Cap vocabulary/naming is
	// reused, never its host-affecting calls.
	effective map[capability.Cap]struct{}
}

// NewRootCredentials returns the credentials of guest init (pid 1):
// uid/gid 0 in every slot, full synthesized capability set.
func NewRootCredentials() *Credentials {
	c := &Credentials{
		effective: make(map[capability.Cap]struct{}, len(rootCapabilities)),
	}
	for _, cap := range rootCapabilities {
		c.effective[cap] = struct{}{}
	}
	return c
}

// rootCapabilities is the synthesized set granted to euid 0, expressed
// via gocapability's enumeration rather than a hand-rolled bitmask.
var rootCapabilities = []capability.Cap{
	capability.CAP_SYS_ADMIN,
	capability.CAP_KILL,
	capability.CAP_SETUID,
	capability.CAP_SETGID,
	capability.CAP_SYS_PTRACE,
}

// Fork returns a copy of c suitable for a child task; clone() never
// shares a *Credentials pointer with the parent (each task owns its own
// copy). Groups and the synthesized capability set are reference types
// (slice, map) that must not alias the parent's, so the copy goes
// through deepcopy rather than a hand-rolled loop per field.
func (c *Credentials) Fork() *Credentials {
	n := *c
	if c.Groups != nil {
		n.Groups = deepcopy.Copy(c.Groups).([]KGID)
	}
	if c.effective != nil {
		n.effective = deepcopy.Copy(c.effective).(map[capability.Cap]struct{})
	}
	return &n
}

// HasCapability reports whether these credentials carry cap.
func (c *Credentials) HasCapability(cap capability.Cap) bool {
	if c == nil {
		return false
	}
	_, ok := c.effective[cap]
	return ok
}

// EffectiveUIDMatch implements EPERM rule: an operation
// against another task is only permitted when the actor's effective uid
// matches the target's, or the actor holds CAP_SYS_ADMIN (the guest
// superuser).
func (c *Credentials) EffectiveUIDMatch(target *Credentials) bool {
	if c.HasCapability(capability.CAP_SYS_ADMIN) {
		return true
	}
	return target != nil && c.EUID == target.EUID
}
