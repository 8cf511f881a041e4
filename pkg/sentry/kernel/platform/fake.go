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

package platform

import "sync"

// FakeMemorySpace is an in-process guest address space backed by a plain
// map, for use by the kernel core's own tests. Production builds of the surrounding emulator supply a real
// MemorySpace backed by mmap'd guest memory; this core never constructs
// one itself.
type FakeMemorySpace struct {
	id   uintptr
	mu   sync.RWMutex
	data map[uint64]uint32
}

// NewFakeMemorySpace returns an empty address space identified by id.
// Distinct ids model distinct thread groups for futex keying tests.
func NewFakeMemorySpace(id uintptr) *FakeMemorySpace {
	return &FakeMemorySpace{id: id, data: make(map[uint64]uint32)}
}

// ID implements MemorySpace.
func (m *FakeMemorySpace) ID() uintptr { return m.id }

// ReadLock implements MemorySpace.
func (m *FakeMemorySpace) ReadLock() { m.mu.RLock() }

// ReadUnlock implements MemorySpace.
func (m *FakeMemorySpace) ReadUnlock() { m.mu.RUnlock() }

// LoadUint32 implements MemorySpace.
func (m *FakeMemorySpace) LoadUint32(addr uint64) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[addr]
	return v, ok
}

// StoreUint32 implements MemorySpace.
func (m *FakeMemorySpace) StoreUint32(addr uint64, value uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return false
	}
	m.data[addr] = value
	return true
}

// Unmap removes addr from the space, so subsequent loads report !ok
// (EFAULT), for exercising boundary cases.
func (m *FakeMemorySpace) Unmap(addr uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, addr)
}

// FakeTelemetry is a fixed-value Telemetry implementation for tests and
// the /proc projection's own unit tests.
type FakeTelemetry struct {
	Cpus    int
	Total   CPUUsage
	PerCPU  []CPUUsage
	Up      UptimeInfo
	Mem     MemUsage
	PerErr  error
}

// CPUCount implements Telemetry.
func (f *FakeTelemetry) CPUCount() int { return f.Cpus }

// TotalCPUUsage implements Telemetry.
func (f *FakeTelemetry) TotalCPUUsage() CPUUsage { return f.Total }

// PerCPUUsage implements Telemetry.
func (f *FakeTelemetry) PerCPUUsage() ([]CPUUsage, error) { return f.PerCPU, f.PerErr }

// Uptime implements Telemetry.
func (f *FakeTelemetry) Uptime() UptimeInfo { return f.Up }

// MemUsage implements Telemetry.
func (f *FakeTelemetry) MemUsage() MemUsage { return f.Mem }

// FakeCPU is a fixed-register CPU implementation for tests.
type FakeCPU struct {
	Leaf0 CPUIDResult
	Leaf1 CPUIDResult
	UTS   UTSName
}

// CPUID implements CPU.
func (f *FakeCPU) CPUID(eax uint32) CPUIDResult {
	if eax == 0 {
		return f.Leaf0
	}
	return f.Leaf1
}

// Uname implements CPU.
func (f *FakeCPU) Uname() UTSName { return f.UTS }

// FakeVFS is a fixed-table VFS implementation for tests.
type FakeVFS struct {
	FS  string
	Mnt []Mount
}

// Filesystems implements VFS.
func (f *FakeVFS) Filesystems() string { return f.FS }

// Mounts implements VFS.
func (f *FakeVFS) Mounts() []Mount { return f.Mnt }
