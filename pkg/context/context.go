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

// Package context threads a cancellation- and logging-capable context
// through the futex engine's blocking entry points (Table.Wait and
// Table.SysFutex), the way gvisor's own pkg/context does for the sentry.
// Wait4 and task creation take no context.
package context

import "context"

// Context is the context type used across blocking kernel operations.
type Context = context.Context

// Background returns a non-nil, empty Context, for use at the top of a
// call chain (e.g. test setup) with no cancellation semantics.
func Background() Context { return context.Background() }

// WithCancel mirrors context.WithCancel; used by callers who want to
// unwind a blocked task via cancellation rather than the task's
// wait-slot signal delivery (e.g. tests).
func WithCancel(parent Context) (Context, context.CancelFunc) {
	return context.WithCancel(parent)
}
