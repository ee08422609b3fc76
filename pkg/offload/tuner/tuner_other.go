//go:build !darwin && !linux

package tuner

import (
	"runtime"
)

// defaultTotalRAM stands in where memory detection is not implemented.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024

// Detect reports CPU cores from the runtime and assumes 8GB of RAM.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     defaultTotalRAM,
		AvailableRAM: defaultTotalRAM / 2,
	}, nil
}
