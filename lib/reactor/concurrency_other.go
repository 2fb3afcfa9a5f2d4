//go:build !linux

package reactor

import "runtime"

// DetectConcurrency returns the number of logical CPUs
func DetectConcurrency() int {
	return runtime.NumCPU()
}
