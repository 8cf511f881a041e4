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

import "ish.dev/ish/pkg/sync"

// FDTable is the file-descriptor table. The actual open
// file implementations live in the VFS layer, out of scope for this
// core; FDTable here only carries the refcount and
// membership semantics clone()/destroy() need.
type FDTable struct {
	mu       sync.Mutex
	refcount int
}

// NewFDTable returns a table with one reference held.
func NewFDTable() *FDTable { return &FDTable{refcount: 1} }

// IncRef adds a reference, for a clone() that shares this table.
func (f *FDTable) IncRef() {
	f.mu.Lock()
	f.refcount++
	f.mu.Unlock()
}

// DecRef drops a reference, reporting whether it was the last one.
func (f *FDTable) DecRef() (last bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount--
	if f.refcount < 0 {
		panic("kernel: FDTable refcount went negative")
	}
	return f.refcount == 0
}

// FSContext is the filesystem-context record: cwd/root/umask. The mount table itself belongs to the VFS
// layer (out of scope); this struct only carries what clone()/destroy()
// need plus the fields /proc's per-pid subtree would read.
type FSContext struct {
	mu       sync.Mutex
	refcount int

	Umask uint32
	Cwd   string
	Root  string
}

// NewFSContext returns a context with one reference held.
func NewFSContext() *FSContext {
	return &FSContext{refcount: 1, Cwd: "/", Root: "/"}
}

// IncRef adds a reference.
func (f *FSContext) IncRef() {
	f.mu.Lock()
	f.refcount++
	f.mu.Unlock()
}

// DecRef drops a reference, reporting whether it was the last one.
func (f *FSContext) DecRef() (last bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount--
	if f.refcount < 0 {
		panic("kernel: FSContext refcount went negative")
	}
	return f.refcount == 0
}

// Fork returns a private copy of f for a clone() that does not share the
// filesystem context, starting at one reference.
func (f *FSContext) Fork() *FSContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &FSContext{refcount: 1, Umask: f.Umask, Cwd: f.Cwd, Root: f.Root}
}
