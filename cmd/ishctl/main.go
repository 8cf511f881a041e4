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

// Binary ishctl is a demo/debug CLI over a single in-process Kernel: it
// seeds a small task tree and exposes subcommands to walk the /proc
// projection and poll a pid to zombie, exercising the kernel core the
// way a guest's own ps/wait tools would.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"ish.dev/ish/pkg/log"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(psCommand), "")
	subcommands.Register(new(waitCommand), "")

	flag.Parse()

	log.SetLevel(logrus.InfoLevel)
	exitCode := subcommands.Execute(context.Background())
	os.Exit(int(exitCode))
}
