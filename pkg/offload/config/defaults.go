// Package config provides configuration management for the offload importer.
package config

// Default configuration values for offload.
const (
	// DefaultEvalMode is the cache evaluation mode used when none is configured.
	DefaultEvalMode = "shallow"

	// DefaultWorkers is the configured worker count. Zero sizes the pool
	// from the machine's CPU and memory.
	DefaultWorkers = 0

	// DefaultRetentionDays is the default number of days to retain run history.
	DefaultRetentionDays = 90

	// DefaultSettleMs is how long watch mode waits for a card to go quiet
	// before starting an import.
	DefaultSettleMs = 2000
)

// DefaultExclusions contains card directories excluded from scans by default.
// MISC holds card configuration junk on most cameras.
var DefaultExclusions = []string{
	"MISC",
}
