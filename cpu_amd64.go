//go:build amd64 && !purego

package pdist

import (
	"fmt"

	"github.com/klauspost/cpuid"
	"golang.org/x/sys/cpu"
)

// cpuSupportsVek reports whether vek's AVX2 kernels can run.
func cpuSupportsVek() error {
	if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
		return nil
	}
	return fmt.Errorf("%s lacks AVX2/FMA: %w", cpuid.CPU.BrandName, ErrNoAcceleration)
}
