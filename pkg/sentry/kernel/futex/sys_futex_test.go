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

package futex

import (
	"context"
	"testing"
	"time"

	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

// TestSysFutexWaitWake dispatches WAIT and WAKE through SysFutex rather
// than calling Wait/Wake directly, confirming the op decode matches the
// underlying primitives.
func TestSysFutexWaitWake(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(10)
	space.StoreUint32(100, 1)

	waitErr := make(chan error, 1)
	go func() {
		_, err := tb.SysFutex(context.Background(), space, 100, OpWait, 1, 0, 0, 0, fakeWaiter{})
		waitErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	woken, err := tb.SysFutex(context.Background(), space, 100, OpWake, 1, 0, 0, 0, fakeWaiter{})
	if err != nil {
		t.Fatalf("SysFutex(WAKE) returned %v, want nil", err)
	}
	if woken != 1 {
		t.Fatalf("SysFutex(WAKE) returned %d, want 1", woken)
	}

	select {
	case err := <-waitErr:
		if err != nil {
			t.Fatalf("SysFutex(WAIT) returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("SysFutex(WAIT) never returned")
	}
}

// TestSysFutexRequeue dispatches REQUEUE through SysFutex, exercising
// the timeoutOrVal2-as-maxRequeue reinterpretation.
func TestSysFutexRequeue(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(11)

	const n = 5
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := tb.SysFutex(context.Background(), space, 200, OpWait, 0, 0, 0, 0, fakeWaiter{})
			results <- err
		}()
	}
	time.Sleep(30 * time.Millisecond)

	moved, err := tb.SysFutex(context.Background(), space, 200, OpRequeue, 2, 10, 300, 0, fakeWaiter{})
	if err != nil {
		t.Fatalf("SysFutex(REQUEUE) returned %v, want nil", err)
	}
	if moved != 5 {
		t.Fatalf("SysFutex(REQUEUE) returned %d, want 5", moved)
	}

	time.Sleep(20 * time.Millisecond)
	secondWave, err := tb.SysFutex(context.Background(), space, 300, OpWake, 10, 0, 0, 0, fakeWaiter{})
	if err != nil {
		t.Fatalf("SysFutex(WAKE) returned %v, want nil", err)
	}
	if secondWave != 3 {
		t.Fatalf("second-wave SysFutex(WAKE) returned %d, want 3", secondWave)
	}

	for i := 0; i < n; i++ {
		select {
		case err := <-results:
			if err != nil {
				t.Errorf("waiter returned %v, want nil", err)
			}
		case <-time.After(time.Second):
			t.Fatal("a waiter never returned")
		}
	}
}

// TestSysFutexUnimplementedOpsReturnENOSYS covers every op the futex
// engine declines to implement.
func TestSysFutexUnimplementedOpsReturnENOSYS(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(12)

	ops := []uint32{
		OpFD, OpCmpRequeue, OpWakeOp, OpLockPI, OpUnlockPI, OpTrylockPI,
		OpWaitBitset, OpWakeBitset, OpWaitRequeuePI, OpCmpRequeuePI,
		0xff, // an op this engine has never heard of
	}
	for _, op := range ops {
		_, err := tb.SysFutex(context.Background(), space, 400, op, 0, 0, 0, 0, fakeWaiter{})
		if !linuxerr.Equals(linuxerr.ENOSYS, err) {
			t.Fatalf("SysFutex(op=%d) returned %v, want ENOSYS", op, err)
		}
	}
}

// TestSysFutexPrivateAndClockRealtimeFlagsAreIgnored confirms the
// PrivateFlag/ClockRealtime bits don't change op decoding.
func TestSysFutexPrivateAndClockRealtimeFlagsAreIgnored(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(13)
	space.StoreUint32(500, 7)

	_, err := tb.SysFutex(context.Background(), space, 500, OpWait|PrivateFlag|ClockRealtime, 3, 0, 0, 0, fakeWaiter{})
	if !linuxerr.Equals(linuxerr.EAGAIN, err) {
		t.Fatalf("got %v, want EAGAIN (flags should not change op decoding)", err)
	}
}

// TestSysFutexTimeoutConversion exercises the guest-timespec-to-Duration
// path: a zero timeout with a matching value returns ETIMEDOUT, the
// same boundary case as a direct Wait call with a zero duration.
func TestSysFutexTimeoutConversion(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(14)
	space.StoreUint32(600, 9)
	space.StoreUint32(700, 0) // timespec at 700: sec=0
	space.StoreUint32(704, 0) // nsec=0

	_, err := tb.SysFutex(context.Background(), space, 600, OpWait, 9, 700, 0, 0, fakeWaiter{})
	if !linuxerr.Equals(linuxerr.ETIMEDOUT, err) {
		t.Fatalf("got %v, want ETIMEDOUT", err)
	}
}

// TestSysFutexBadTimespecIsEINVAL covers an out-of-range nsec field.
func TestSysFutexBadTimespecIsEINVAL(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(15)
	space.StoreUint32(600, 9)
	space.StoreUint32(700, 0)
	space.StoreUint32(704, 2_000_000_000) // nsec >= 1e9

	_, err := tb.SysFutex(context.Background(), space, 600, OpWait, 9, 700, 0, 0, fakeWaiter{})
	if !linuxerr.Equals(linuxerr.EINVAL, err) {
		t.Fatalf("got %v, want EINVAL", err)
	}
}

// TestSysFutexUnmappedTimespecIsEFAULT covers a timeout pointer to
// unmapped guest memory.
func TestSysFutexUnmappedTimespecIsEFAULT(t *testing.T) {
	tb := NewTable()
	space := platform.NewFakeMemorySpace(16)
	space.StoreUint32(600, 9)

	_, err := tb.SysFutex(context.Background(), space, 600, OpWait, 9, 900, 0, 0, fakeWaiter{})
	if !linuxerr.Equals(linuxerr.EFAULT, err) {
		t.Fatalf("got %v, want EFAULT", err)
	}
}
