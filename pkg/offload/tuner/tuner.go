// Package tuner sizes the import pipeline for the machine it runs on.
// It detects CPU cores and RAM per platform and turns them into a worker
// count and queue size for the importer; card readers saturate long
// before big machines run out of cores, so the results stay modest.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available RAM in bytes, estimated on
	// platforms that do not report it directly.
	AvailableRAM int64
}
