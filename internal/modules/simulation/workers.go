package simulation

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultWorkers returns the number of logical CPUs
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
