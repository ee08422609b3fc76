//go:build linux

package tuner

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Detect reports CPU cores and RAM via sysinfo(2). Buffer memory counts
// as available: the kernel reclaims it under pressure.
func Detect() (SystemResources, error) {
	resources := SystemResources{
		CPUCores: runtime.NumCPU(),
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return resources, fmt.Errorf("sysinfo: %w", err)
	}

	unit := int64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	resources.TotalRAM = int64(si.Totalram) * unit
	resources.AvailableRAM = (int64(si.Freeram) + int64(si.Bufferram)) * unit

	return resources, nil
}
