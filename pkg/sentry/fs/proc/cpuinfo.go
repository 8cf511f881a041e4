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

// edxFlagNames is the fixed 32-entry mnemonic table for CPUID leaf 1's
// edx bits: reserved bits map to "Reserved ", bit 16 maps to the empty
// string.
var edxFlagNames = [32]string{
	"fpu ", "vme ", "de ", "pse ", "tsc ", "msr ", "pae ", "mce ", "cx8 ", "apic ", "Reserved ",
	"sep ", "mtrr ", "pge ", "mca ", "cmov ", "", "pse-36 ", "psn ", "clfsh ", "Reserved ",
	"ds ", "acpi ", "mmx ", "fxsr ", "sse ", "sse2 ", "ss ", "htt ", "tm ", "Reserved ", "pbe ",
}

// edxFlags renders edx's bit flags as a space-joined mnemonic string.
func edxFlags(edx uint32) string {
	s := ""
	for i := 0; i < 32; i++ {
		if edx&(1<<uint(i)) != 0 {
			s += edxFlagNames[i]
		}
	}
	return s
}

// vendorID unpacks ebx|edx|ecx of CPUID leaf 0 as little-endian 4-byte
// groups.
func vendorID(ebx, ecx, edx uint32) string {
	buf := make([]byte, 0, 12)
	buf = appendLE32(buf, ebx)
	buf = appendLE32(buf, edx)
	buf = appendLE32(buf, ecx)
	return string(buf)
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// showCPUInfo implements /proc/cpuinfo: one
// block per virtual CPU in the listed field order, including the
// observable "pysical id" typo (kept verbatim; see DESIGN.md Open
// Questions).
func showCPUInfo(k *kernel.Kernel) []byte {
	p := &printer{}

	leaf0 := k.CPU.CPUID(0)
	vid := vendorID(leaf0.EBX, leaf0.ECX, leaf0.EDX)

	leaf1 := k.CPU.CPUID(1)
	flags := edxFlags(leaf1.EDX)

	cpuCount := k.Telemetry.CPUCount()
	for i := 0; i < cpuCount; i++ {
		p.printf("processor       : %d\n", i)
		p.printf("vendor_id       : %s\n", vid)
		p.printf("cpu family      : %d\n", 1)
		p.printf("model           : %d\n", 1)
		p.printf("model name      : iSH Virtual i686-compatible CPU @ 1.066GHz\n")
		p.printf("stepping        : %d\n", 1)
		p.printf("CPU MHz         : 1066.00\n")
		p.printf("cache size      : %d kb\n", 0)
		p.printf("pysical id      : %d\n", 0)
		p.printf("siblings        : %d\n", 0)
		p.printf("core id         : %d\n", 0)
		p.printf("cpu cores       : %d\n", cpuCount)
		p.printf("apicid          : %d\n", 0)
		p.printf("initial apicid  : %d\n", 0)
		p.printf("fpu             : yes\n")
		p.printf("fpu_exception   : yes\n")
		p.printf("cpuid level     : %d\n", 13)
		p.printf("wp              : yes\n")
		p.printf("flags           : %s\n", flags)
		p.printf("bogomips        : 1066.00\n")
		p.printf("clflush size    : %d\n", leaf1.EBX)
		p.printf("cache_alignment : %d\n", 64)
		p.printf("address sizes   : 36 bits physical, 32 bits virtual\n")
		p.printf("power management:\n")
		p.printf("\n")
	}
	return p.bytes()
}
