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

// Package platform defines the external collaborators this core
// depends on: the guest memory manager, the CPU emulator, telemetry,
// and the VFS mount table. The CPU interpreter, memory manager, and
// VFS layer are deliberately out of scope for this module; this
// package only carries the narrow interfaces the kernel core calls
// into them through, so the core can be built and tested without them.
package platform

// AccessMode mirrors MEM_READ/MEM_WRITE from the guest memory API.
type AccessMode int

const (
	// Read requests a read-only mapping.
	Read AccessMode = iota
	// Write requests a writable mapping.
	Write
)

// MemorySpace is the guest address space collaborator. A MemorySpace is shared by every task in a thread
// group and optionally across clone() with CLONE_VM.
type MemorySpace interface {
	// ID uniquely identifies this address space for futex keying.
	ID() uintptr

	// ReadLock/ReadUnlock bracket a futex compare read.
	ReadLock()
	ReadUnlock()

	// LoadUint32 reads a 32-bit guest value at addr. ok is false if addr
	// is unmapped; callers translate that to EFAULT.
	LoadUint32(addr uint64) (value uint32, ok bool)

	// StoreUint32 writes a 32-bit guest value at addr. ok is false if
	// addr is unmapped.
	StoreUint32(addr uint64, value uint32) (ok bool)
}

// CPUUsage is the {user, nice, system, idle} tick breakdown returned by
// Telemetry.TotalCPUUsage/PerCPUUsage.
type CPUUsage struct {
	UserTicks   uint64
	NiceTicks   uint64
	SystemTicks uint64
	IdleTicks   uint64
}

// UptimeInfo is the uptime/load snapshot returned by Telemetry.Uptime. Loads are
// 16.16 fixed-point.
type UptimeInfo struct {
	UptimeTicks uint64
	Load1m      uint32
	Load5m      uint32
	Load15m     uint32
}

// MemUsage is the byte-denominated memory snapshot returned by
// Telemetry.MemUsage.
type MemUsage struct {
	Total     uint64
	Free      uint64
	Available uint64
	Active    uint64
	Inactive  uint64
	Cached    uint64
	Swapins   uint64
	Swapouts  uint64
	WireCount uint64
}

// CPUIDResult is the {eax,ebx,ecx,edx} register tuple returned by
// CPU.CPUID, mirroring the external do_cpuid(&eax, &ebx, &ecx, &edx) API.
type CPUIDResult struct {
	EAX, EBX, ECX, EDX uint32
}

// UTSName mirrors the external do_uname(&uts) struct.
type UTSName struct {
	System  string
	Release string
	Version string
}

// Mount is one entry of the external VFS mount table, shaped for
// /proc/mounts rendering.
type Mount struct {
	Source   string
	Point    string
	FSType   string
	ReadOnly bool
	NoSUID   bool
	NoDev    bool
	NoExec   bool
	Info     string
}

// Telemetry is the collaborator that reports CPU count/usage,
// uptime/load, and memory usage, all sourced from outside this core
// (the CPU emulator and host OS).
type Telemetry interface {
	CPUCount() int
	TotalCPUUsage() CPUUsage
	PerCPUUsage() ([]CPUUsage, error)
	Uptime() UptimeInfo
	MemUsage() MemUsage
}

// CPU is the external CPU-emulator collaborator.
type CPU interface {
	CPUID(eax uint32) CPUIDResult
	Uname() UTSName
}

// VFS is the external filesystem/mount-table collaborator, reduced to exactly what /proc/filesystems and /proc/mounts
// need.
type VFS interface {
	Filesystems() string
	Mounts() []Mount
}
