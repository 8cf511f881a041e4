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

// Package proc implements the read-side /proc projection: a read-only,
// hierarchical, text-producing filesystem satisfying only
// open/read/readdir/readlink. Each entry is a tagged Entry variant, the
// Go-idiomatic equivalent of a union of function pointers keyed by
// entry kind.
package proc

import (
	"bytes"
	"fmt"
	"sort"

	"ish.dev/ish/pkg/sentry/kernel"
)

// Kind discriminates the four entry shapes a node can take.
type Kind int

const (
	// Leaf is a static text-producing file (Show).
	Leaf Kind = iota
	// Dir is a static directory with a fixed Children list.
	Dir
	// Symlink is a readlink-only node (Readlink).
	Symlink
	// PidLeaf is a dynamic, per-pid text file (ShowPid).
	PidLeaf
)

// Entry is one node of the projection. Exactly the fields matching Kind
// are meaningful; a single struct with optional callbacks is used here
// rather than a Go interface per kind, since the root readdir needs to
// range over a flat, alphabetically sorted table of these.
type Entry struct {
	Name string
	Kind Kind

	// Show backs Leaf: renders the entry's contents given the live
	// kernel state. Called fresh on every read.
	Show func(k *kernel.Kernel) []byte

	// Children backs Dir.
	Children []*Entry

	// Readlink backs Symlink. Unlike Show it additionally needs the
	// reading task's identity, since "self" resolves relative to the
	// caller.
	Readlink func(k *kernel.Kernel, caller *kernel.Task) string

	// ShowPid backs PidLeaf: rendered for one specific pid's subtree.
	ShowPid func(k *kernel.Kernel, pid int32) ([]byte, error)
}

// printer is a small growable-buffer formatter used by every Show
// function to build its rendered text.
type printer struct {
	buf bytes.Buffer
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *printer) bytes() []byte { return p.buf.Bytes() }

// sortedChildren returns children sorted by name, the alphabetical
// order root readdir requires.
func sortedChildren(children []*Entry) []*Entry {
	out := make([]*Entry, len(children))
	copy(out, children)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Read renders e's contents for a plain (non-pid) Leaf. Idempotent:
// two reads with unchanged system state produce identical output.
func Read(k *kernel.Kernel, e *Entry) []byte {
	return e.Show(k)
}

// ReadPid renders e's contents inside pid's directory for a PidLeaf.
func ReadPid(k *kernel.Kernel, e *Entry, pid int32) ([]byte, error) {
	return e.ShowPid(k, pid)
}

// ReadlinkOf resolves e's readlink target on behalf of caller.
func ReadlinkOf(k *kernel.Kernel, e *Entry, caller *kernel.Task) string {
	return e.Readlink(k, caller)
}
