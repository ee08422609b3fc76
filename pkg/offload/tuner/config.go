package tuner

// Pool limits. Import work is bound by card-reader throughput, not
// cores; past a point extra workers only interleave reads on a device
// that prefers sequential access.
const (
	minWorkers = 2
	maxWorkers = 16

	minQueueSize = 64
	maxQueueSize = 4096

	// bytesPerQueueEntry estimates one queued candidate: a path string
	// plus stat metadata.
	bytesPerQueueEntry = 512

	// queueMemoryFraction is the slice of available RAM the candidate
	// queue may claim.
	queueMemoryFraction = 0.01
)

// PoolConfig is the tuned shape of the import worker pool.
type PoolConfig struct {
	// Workers is the number of concurrent import workers.
	Workers int

	// QueueSize is the candidate channel buffer.
	QueueSize int
}

// Calculate sizes the pool for the detected resources: one worker per
// core within [2, 16], and a memory-bounded candidate queue.
func Calculate(resources SystemResources) PoolConfig {
	workers := resources.CPUCores
	workers = max(workers, minWorkers)
	workers = min(workers, maxWorkers)

	return PoolConfig{
		Workers:   workers,
		QueueSize: calculateQueueSize(resources.AvailableRAM),
	}
}

// CalculateWithOverride applies a user-requested worker count on top of
// the calculated config. Zero or negative keeps the calculated value;
// explicit requests are honored beyond the auto cap but never below 1.
func CalculateWithOverride(resources SystemResources, workers int) PoolConfig {
	config := Calculate(resources)

	if workers > 0 {
		config.Workers = max(workers, 1)
	}

	return config
}

// calculateQueueSize bounds the candidate queue by available memory.
func calculateQueueSize(availableRAM int64) int {
	queueMemory := float64(availableRAM) * queueMemoryFraction
	entries := int(queueMemory / bytesPerQueueEntry)

	entries = max(entries, minQueueSize)
	entries = min(entries, maxQueueSize)
	return entries
}
