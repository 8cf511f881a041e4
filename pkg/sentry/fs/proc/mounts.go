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

package proc

import "ish.dev/ish/pkg/sentry/kernel"

// printEscaped backslash-escapes space, tab, and backslash as octal
// \NNN, the same escaping /proc/mounts applies to path components.
func printEscaped(p *printer, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\t', ' ', '\\':
			p.printf("\\%03o", s[i])
		default:
			p.printf("%c", s[i])
		}
	}
}

// showMounts implements /proc/mounts: one line
// per mount, "<source> <point> <fstype> <opts> 0 0".
func showMounts(k *kernel.Kernel) []byte {
	p := &printer{}
	for _, m := range k.VFS.Mounts() {
		point := m.Point
		if point == "" {
			point = "/"
		}

		printEscaped(p, m.Source)
		p.printf(" ")
		printEscaped(p, point)
		p.printf(" %s ", m.FSType)

		atStart := true
		writeOpt := func(opt string) {
			if !atStart {
				p.printf(",")
			}
			p.printf("%s", opt)
			atStart = false
		}
		if m.ReadOnly {
			writeOpt("ro")
		} else {
			writeOpt("rw")
		}
		if m.NoSUID {
			writeOpt("nosuid")
		}
		if m.NoDev {
			writeOpt("nodev")
		}
		if m.NoExec {
			writeOpt("noexec")
		}
		if m.Info != "" {
			writeOpt(m.Info)
		}
		p.printf(" 0 0\n")
	}
	return p.bytes()
}
