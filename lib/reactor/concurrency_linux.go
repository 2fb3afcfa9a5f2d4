//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
	"runtime"
)

// DetectConcurrency returns the number of CPUs this process may run on,
// honoring the scheduler affinity mask (taskset, cpusets)
func DetectConcurrency() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	return set.Count()
}
