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
	"ish.dev/ish/pkg/sentry/kernel/futex"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

// KernelConfig parameterizes a Kernel at construction time. There is no
// persisted state to load; this is the entirety of the core's
// "configuration".
type KernelConfig struct {
	// Telemetry, CPU, and VFS are the external collaborators the /proc
	// projection reads from. All three are mandatory; the projection
	// cannot be built without them.
	Telemetry platform.Telemetry
	CPU       platform.CPU
	VFS       platform.VFS
}

// Kernel is the module-scoped singleton: a value with explicit
// construction and teardown rather than package-level init state, so
// tests can build and discard one without leaking between cases. It
// owns the PID namespace and the futex table, the two pieces of global
// mutable state this core manages.
type Kernel struct {
	PIDs    *PIDNamespace
	Futexes *futex.Table

	Telemetry platform.Telemetry
	CPU       platform.CPU
	VFS       platform.VFS

	// initTask is pid 1, the reparenting target for orphaned children.
	initTask *Task
}

// NewKernel constructs a Kernel. It does not create any tasks; call
// CreateInitTask to get pid 1 running.
func NewKernel(cfg KernelConfig) *Kernel {
	return &Kernel{
		PIDs:      NewPIDNamespace(),
		Futexes:   futex.NewTable(),
		Telemetry: cfg.Telemetry,
		CPU:       cfg.CPU,
		VFS:       cfg.VFS,
	}
}

// Teardown resets the futex table. The PID namespace is left as is and
// goes away with the Kernel. Paired with NewKernel so tests can
// construct and discard a Kernel without process-wide leakage.
func (k *Kernel) Teardown() {
	k.Futexes.Reset()
}

// CreateInitTask allocates pid 1, the guest init task every other task
// eventually reparents to. It is a thin convenience
// wrapper over Create(nil, CloneFlags{}).
func (k *Kernel) CreateInitTask() (*Task, error) {
	return k.Create(nil, CloneFlags{})
}
