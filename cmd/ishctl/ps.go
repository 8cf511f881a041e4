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
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"ish.dev/ish/pkg/sentry/fs/proc"
)

// psCommand implements subcommands.Command for "ps": walks the /proc
// root projection's pid entries and prints pid/state/comm, the way a
// guest ps(1) would read them off the real filesystem.
type psCommand struct{}

// Name implements subcommands.Command.Name.
func (*psCommand) Name() string { return "ps" }

// Synopsis implements subcommands.Command.Synopsis.
func (*psCommand) Synopsis() string { return "list tasks via the /proc projection" }

// Usage implements subcommands.Command.Usage.
func (*psCommand) Usage() string { return "ps\n" }

// SetFlags implements subcommands.Command.SetFlags.
func (*psCommand) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*psCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	k, _ := newDemoKernel()

	fmt.Println("PID\tSTATE\tCOMM")
	index := 0
	for {
		ent, next, ok := proc.ReaddirRoot(k, index)
		if !ok {
			break
		}
		index = next
		if ent.Static != nil {
			continue
		}
		snap, found := k.PIDs.Snapshot(ent.Pid)
		if !found {
			continue
		}
		state := "R"
		if snap.Zombie {
			state = "Z"
		} else if snap.Exiting {
			state = "X"
		}
		fmt.Printf("%d\t%s\t%s\n", snap.PID, state, snap.Comm)
	}
	return subcommands.ExitSuccess
}
