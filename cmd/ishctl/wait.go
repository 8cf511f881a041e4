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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/subcommands"

	"ish.dev/ish/pkg/errors/linuxerr"
	"ish.dev/ish/pkg/sentry/kernel"
)

// waitCommand implements subcommands.Command for "wait": polls a pid's
// /proc status until it reaches the ZOMBIE state, backing off between
// polls rather than busy-looping.
// A real caller would instead use Kernel.Wait4, which blocks on the
// child_exit condition directly; this command exists to exercise the
// read side of the lifecycle through the same /proc-facing Snapshot
// every other projection consumer uses.
type waitCommand struct {
	maxElapsed time.Duration
}

// Name implements subcommands.Command.Name.
func (*waitCommand) Name() string { return "wait" }

// Synopsis implements subcommands.Command.Synopsis.
func (*waitCommand) Synopsis() string { return "poll a demo pid until it reaches ZOMBIE" }

// Usage implements subcommands.Command.Usage.
func (*waitCommand) Usage() string { return "wait [flags] <pid>\n" }

// SetFlags implements subcommands.Command.SetFlags.
func (w *waitCommand) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&w.maxElapsed, "timeout", 2*time.Second, "give up after this long")
}

// Execute implements subcommands.Command.Execute.
func (w *waitCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var pid int32
	if _, err := fmt.Sscanf(f.Arg(0), "%d", &pid); err != nil {
		fmt.Println("wait: bad pid:", f.Arg(0))
		return subcommands.ExitUsageError
	}

	k, children := newDemoKernel()
	go simulateExit(k, children, pid)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = w.maxElapsed

	var final kernel.TaskSnapshot
	err := backoff.Retry(func() error {
		snap, ok := k.PIDs.Snapshot(pid)
		if !ok {
			return backoff.Permanent(linuxerr.ESRCH)
		}
		if !snap.Zombie {
			return errors.New("not zombie yet")
		}
		final = snap
		return nil
	}, b)
	if err != nil {
		fmt.Println("wait:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("pid %d reaped, comm=%s\n", final.PID, final.Comm)
	return subcommands.ExitSuccess
}

// simulateExit exits and zombifies pid shortly after the wait command
// starts polling, standing in for whatever external event (the guest
// calling exit_group) would normally drive this transition.
func simulateExit(k *kernel.Kernel, children []*kernel.Task, pid int32) {
	time.Sleep(50 * time.Millisecond)
	for _, c := range children {
		if c.PID == pid {
			k.Exit(c, 0)
			k.Zombify(c, 0)
			return
		}
	}
}
