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
	"time"

	"golang.org/x/sys/unix"

	kcontext "ish.dev/ish/pkg/context"
	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/log"
	"ish.dev/ish/pkg/sentry/kernel/platform"
)

// Futex op codes, matching the Linux futex(2) op argument.
const (
	OpWait          uint32 = 0
	OpWake          uint32 = 1
	OpFD            uint32 = 2
	OpRequeue       uint32 = 3
	OpCmpRequeue    uint32 = 4
	OpWakeOp        uint32 = 5
	OpLockPI        uint32 = 6
	OpUnlockPI      uint32 = 7
	OpTrylockPI     uint32 = 8
	OpWaitBitset    uint32 = 9
	OpWakeBitset    uint32 = 10
	OpWaitRequeuePI uint32 = 11
	OpCmpRequeuePI  uint32 = 12

	// PrivateFlag and ClockRealtime are bits ORed into op. Neither
	// changes behavior here: every futex in this engine is already
	// process-private (there is no shared-memory futex support), and
	// CLOCK_REALTIME is silently treated as monotonic per the accepted
	// simplification.
	PrivateFlag   uint32 = 128
	ClockRealtime uint32 = 256

	opMask = PrivateFlag | ClockRealtime
)

// opName is used only for FIXME logging, so an unrecognized op still
// produces a useful message instead of a bare number.
var opName = map[uint32]string{
	OpFD:            "FD",
	OpCmpRequeue:    "CMP_REQUEUE",
	OpWakeOp:        "WAKE_OP",
	OpLockPI:        "LOCK_PI",
	OpUnlockPI:      "UNLOCK_PI",
	OpTrylockPI:     "TRYLOCK_PI",
	OpWaitBitset:    "WAIT_BITSET",
	OpWakeBitset:    "WAKE_BITSET",
	OpWaitRequeuePI: "WAIT_REQUEUE_PI",
	OpCmpRequeuePI:  "CMP_REQUEUE_PI",
}

// SysFutex implements the sys_futex(uaddr, op, val, timeout_or_val2,
// uaddr2, val3) entry point: it decodes op and dispatches to Wait,
// Wake, or Requeue. val3 (the WAKE_OP/CMP_REQUEUE/*_BITSET argument) is
// accepted but unused by every op this engine actually implements.
//
// For WAIT, timeoutOrVal2 is a guest pointer to a timespec (0 means
// wait forever). For REQUEUE, it is reinterpreted as maxRequeue rather
// than a pointer, matching the real futex(2) ABI.
//
// Returns the op's result count/status and an error in the linuxerr
// vocabulary. Ops outside WAIT/WAKE/REQUEUE are not implemented: they
// log at fixme level and return ENOSYS, per the unimplemented-ops list.
func (tb *Table) SysFutex(ctx kcontext.Context, space platform.MemorySpace, uaddr uint64, op uint32, val uint32, timeoutOrVal2 uint64, uaddr2 uint64, val3 uint32, w Waiter) (int32, error) {
	_ = val3
	switch op &^ opMask {
	case OpWait:
		timeout, err := readTimeout(space, timeoutOrVal2)
		if err != nil {
			return -1, err
		}
		if err := tb.Wait(ctx, space, uaddr, val, timeout, w); err != nil {
			return -1, err
		}
		return 0, nil

	case OpWake:
		return int32(tb.Wake(space, uaddr, int(val))), nil

	case OpRequeue:
		n := tb.Requeue(space, uaddr, int(val), int(timeoutOrVal2), uaddr2)
		return int32(n), nil

	default:
		name, known := opName[op&^opMask]
		if !known {
			name = "unrecognized"
		}
		log.FIXME("futex: unimplemented op %s (%d)", name, op&^opMask)
		return -1, linuxerr.ENOSYS
	}
}

// readTimeout decodes a guest timespec at addr into a relative
// duration. addr == 0 means no timeout (wait forever), matching a null
// timespec pointer. The wire format is two 32-bit words, sec then nsec;
// nsec must be in [0, 1e9).
func readTimeout(space platform.MemorySpace, addr uint64) (*time.Duration, error) {
	if addr == 0 {
		return nil, nil
	}

	space.ReadLock()
	sec, secOK := space.LoadUint32(addr)
	nsec, nsecOK := space.LoadUint32(addr + 4)
	space.ReadUnlock()
	if !secOK || !nsecOK {
		return nil, linuxerr.EFAULT
	}
	if nsec >= 1_000_000_000 {
		return nil, linuxerr.EINVAL
	}

	ts := unix.Timespec{Sec: int64(sec), Nsec: int64(nsec)}
	d := time.Duration(unix.TimespecToNsec(ts))
	return &d, nil
}
