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

package linuxerr

import (
	"fmt"
	"testing"
)

func TestEqualsMatchesSentinel(t *testing.T) {
	if !Equals(EAGAIN, EAGAIN) {
		t.Error("EAGAIN should equal itself")
	}
	if Equals(EAGAIN, ETIMEDOUT) {
		t.Error("EAGAIN should not equal ETIMEDOUT")
	}
}

func TestEqualsWalksWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("syscall failed: %w", EINTR)
	if !Equals(EINTR, wrapped) {
		t.Error("Equals should unwrap to find EINTR")
	}
}

func TestEqualsNilErr(t *testing.T) {
	if Equals(ESRCH, nil) {
		t.Error("nil error should not equal any sentinel")
	}
}

func TestErrInterruptedIsEINTR(t *testing.T) {
	if !Equals(EINTR, ErrInterrupted) {
		t.Error("ErrInterrupted should be EINTR")
	}
}
