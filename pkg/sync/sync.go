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

// Package sync re-exports the concurrency primitives used across the
// kernel core behind a project-local package, the way gvisor's own
// pkg/sync does (there it additionally instruments locks for its nogo
// lock-order checker; that static-analysis tooling is out of scope here,
// so this package is a thin pass-through over the standard library).
package sync

import "sync"

// Mutex is a plain mutual-exclusion lock.
type Mutex = sync.Mutex

// RWMutex is a reader/writer mutual-exclusion lock.
type RWMutex = sync.RWMutex

// Cond is a condition variable, used for every blocking wait in this
// core: futex waits, wait4's child_exit, vfork's done flag, and
// ThreadGroup.stopped.
type Cond = sync.Cond

// NewCond returns a new Cond associated with l.
func NewCond(l sync.Locker) *Cond { return sync.NewCond(l) }

// WaitGroup groups a set of goroutines to wait for.
type WaitGroup = sync.WaitGroup

// Once performs an action exactly once.
type Once = sync.Once
