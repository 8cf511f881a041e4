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

// Package futex implements a futex engine: per (address-space, address)
// wait queues over guest memory, with WAIT, WAKE, and REQUEUE
// primitives.
package futex

import (
	"time"

	kcontext "ish.dev/ish/pkg/context"
	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/log"
	"ish.dev/ish/pkg/sentry/kernel/platform"
	"ish.dev/ish/pkg/sync"
)

// HashBuckets is the fixed bucket count backing the wait-queue hash
// table.
const HashBuckets = 1 << 12

// Waiter is the minimal task-facing capability the futex engine needs:
// recording the condition a blocked caller is waiting on, so signal
// delivery can force a wake-up without this package knowing anything
// about signals. *kernel.Task implements this.
type Waiter interface {
	RecordWait(cond *sync.Cond) func()
}

// entry is a single futex word: keyed by (MemorySpace, guest_address),
// refcounted, with a FIFO queue of waiters.
type entry struct {
	spaceID  uintptr
	addr     uint64
	refcount int
	waiters  []*waitRecord
}

// waitRecord is a per-waiter record live only for the duration of one
// WAIT call.
type waitRecord struct {
	cond   *sync.Cond
	futex  *entry
	bitset uint32
}

// Table is the single global futex hash table plus its single global
// lock. There is exactly one Table per Kernel.
type Table struct {
	mu      sync.Mutex
	buckets [HashBuckets][]*entry
}

// NewTable returns an empty futex table.
func NewTable() *Table { return &Table{} }

// Reset drops every bucket. Used by Kernel.Teardown to avoid leaking
// state across test cases.
func (tb *Table) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	for i := range tb.buckets {
		tb.buckets[i] = nil
	}
}

func bucketIndex(spaceID uintptr, addr uint64) uint32 {
	return uint32((addr ^ uint64(spaceID)) % HashBuckets)
}

// getOrCreateLocked returns the entry for (space, addr), creating it
// with refcount 1 if absent, or incrementing an existing one's refcount.
// Caller must hold tb.mu.
func (tb *Table) getOrCreateLocked(space platform.MemorySpace, addr uint64) *entry {
	idx := bucketIndex(space.ID(), addr)
	for _, f := range tb.buckets[idx] {
		if f.spaceID == space.ID() && f.addr == addr {
			f.refcount++
			return f
		}
	}
	f := &entry{spaceID: space.ID(), addr: addr, refcount: 1}
	tb.buckets[idx] = append(tb.buckets[idx], f)
	return f
}

// putLocked drops one reference on f, removing it from its bucket once
// the refcount reaches zero. Caller must
// hold tb.mu.
func (tb *Table) putLocked(f *entry) {
	f.refcount--
	if f.refcount > 0 {
		return
	}
	if len(f.waiters) != 0 {
		log.Traceback("futex: entry reached refcount 0 with a non-empty queue")
		panic("futex: refcount/queue invariant violated")
	}
	idx := bucketIndex(f.spaceID, f.addr)
	chain := tb.buckets[idx]
	for i, e := range chain {
		if e == f {
			tb.buckets[idx] = append(chain[:i], chain[i+1:]...)
			break
		}
	}
}

func removeFromQueue(f *entry, w *waitRecord) bool {
	for i, q := range f.waiters {
		if q == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Wait implements WAIT: block if *addr == expected.
// Returns nil on wake, EAGAIN if the compare failed, EFAULT on
// unreadable guest memory, ETIMEDOUT if timeout elapses, EINTR if woken
// by the waiter's wait slot (signal delivery) before either.
//
// A nil timeout means wait forever.
// ctx is threaded through purely for cancellation: if it is canceled
// before a real wake, Wait returns EINTR, the same as a signal-forced
// wake-up.
func (tb *Table) Wait(ctx kcontext.Context, space platform.MemorySpace, addr uint64, expected uint32, timeout *time.Duration, w Waiter) error {
	tb.mu.Lock()
	f := tb.getOrCreateLocked(space, addr)

	space.ReadLock()
	val, ok := space.LoadUint32(addr)
	space.ReadUnlock()

	if !ok {
		tb.putLocked(f)
		tb.mu.Unlock()
		return linuxerr.EFAULT
	}
	if val != expected {
		tb.putLocked(f)
		tb.mu.Unlock()
		return linuxerr.EAGAIN
	}

	rec := &waitRecord{cond: sync.NewCond(&tb.mu), futex: f}
	f.waiters = append(f.waiters, rec)
	release := w.RecordWait(rec.cond)

	deadline, haveDeadline := deadlineFor(timeout)
	var timer *time.Timer
	if haveDeadline {
		timer = time.AfterFunc(time.Until(deadline), func() {
			tb.mu.Lock()
			rec.cond.Broadcast()
			tb.mu.Unlock()
		})
	}

	stopWatchingCtx := watchContext(ctx, &tb.mu, rec.cond)

	rec.cond.Wait()

	stopWatchingCtx()
	release()
	if timer != nil {
		timer.Stop()
	}

	// The wait may have been requeued onto a different entry; rec.futex always names whichever entry currently
	// owns it.
	cur := rec.futex
	var err error
	switch {
	case removeFromQueue(cur, rec):
		// Nobody dequeued us: either the deadline passed or we were
		// force-woken by signal delivery. Distinguish by deadline.
		if haveDeadline && !time.Now().Before(deadline) {
			err = linuxerr.ETIMEDOUT
		} else {
			err = linuxerr.EINTR
		}
	default:
		// A real WAKE/REQUEUE already removed us from the queue.
		err = nil
	}
	tb.putLocked(cur)
	tb.mu.Unlock()
	return err
}

func deadlineFor(timeout *time.Duration) (time.Time, bool) {
	if timeout == nil {
		return time.Time{}, false
	}
	return time.Now().Add(*timeout), true
}

// watchContext spawns a goroutine that broadcasts on cond (taking mu
// first, matching the locking discipline the AfterFunc timeout callback
// above already uses) if ctx is canceled before the returned stop
// function is called. If ctx is nil, watchContext is a no-op: not every
// caller has a request-scoped context to thread through (e.g. internal
// requeue bookkeeping never calls Wait).
func watchContext(ctx kcontext.Context, mu *sync.Mutex, cond *sync.Cond) (stop func()) {
	if ctx == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Wake implements WAKE: wake up to max waiters FIFO,
// front to back, removing each from the queue. Returns the number
// woken.
func (tb *Table) Wake(space platform.MemorySpace, addr uint64, max int) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	f := tb.getOrCreateLocked(space, addr)
	defer tb.putLocked(f)
	return tb.wakeLocked(f, max)
}

// wakeLocked wakes up to max waiters on f and returns how many. Caller
// holds tb.mu.
func (tb *Table) wakeLocked(f *entry, max int) int {
	woken := 0
	for woken < max && len(f.waiters) > 0 {
		w := f.waiters[0]
		f.waiters = f.waiters[1:]
		w.cond.Broadcast()
		woken++
	}
	return woken
}

// Requeue implements REQUEUE: wake up to maxWake on addr,
// then move up to maxRequeue of the remaining waiters from addr to
// addr2, transferring one refcount per moved waiter. Returns
// woken+requeued.
func (tb *Table) Requeue(space platform.MemorySpace, addr uint64, maxWake, maxRequeue int, addr2 uint64) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	f := tb.getOrCreateLocked(space, addr)
	woken := tb.wakeLocked(f, maxWake)

	if maxRequeue > 0 {
		f2 := tb.getOrCreateLocked(space, addr2)
		requeued := 0
		for requeued < maxRequeue && len(f.waiters) > 0 {
			w := f.waiters[0]
			f.waiters = f.waiters[1:]
			f2.waiters = append(f2.waiters, w)
			// The caller's own reference on f, taken by getOrCreateLocked
			// above, must still be outstanding at this point.
			if f.refcount <= 1 {
				log.Traceback("futex: requeue invariant violated: source refcount <= 1")
				panic("futex: requeue refcount invariant violated")
			}
			f.refcount--
			f2.refcount++
			w.futex = f2
			requeued++
		}
		tb.putLocked(f2)
		woken += requeued
	}

	tb.putLocked(f)
	return woken
}
