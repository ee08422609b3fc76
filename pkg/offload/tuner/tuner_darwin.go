//go:build darwin

package tuner

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Detect reports CPU cores and RAM. Core count comes from the runtime;
// memory comes from the hw.memsize sysctl.
func Detect() (SystemResources, error) {
	resources := SystemResources{
		CPUCores: runtime.NumCPU(),
	}

	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return resources, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	resources.TotalRAM = int64(memsize)

	// macOS keeps most free memory in the file cache; precise
	// availability would mean host_statistics. Half of total is a safe
	// stand-in for queue sizing.
	resources.AvailableRAM = resources.TotalRAM / 2

	return resources, nil
}
