// Package config is the explicit, process-wide configuration singleton,
// loaded once at startup and passed by reference rather than reached for
// ad hoc (per §9's "global config singletons" redesign note). Modeled on
// how executor/sort.go calls config.GetGlobalConfig().OOMUseTmpStorage.
package config

import (
	"sync/atomic"

	"github.com/BurntSushi/toml"
)

// Config holds the execution-core tunables named across §4.6-§4.8.
type Config struct {
	// OOMUseTmpStorage is carried for configuration compatibility; no
	// component reads it, and sort runs always stay in memory.
	OOMUseTmpStorage bool
	// MemLimit bounds the bytes a single sort job's TupleArray may use
	// before it is flushed as a run (§4.6).
	MemLimit int64
	// NStreams is the external sort's merge fan-in (§4.6), >= 2.
	NStreams int
	// PipelineLimit bounds the number of materialized runs alive at once
	// (§4.6), >= NStreams.
	PipelineLimit int
	// NumJobs is handed to the sort engine's partition step (forced to 1
	// when the input array is not RANDOM access); partitioning itself runs
	// sequentially on one goroutine, so the value does not change parallelism.
	NumJobs int
	// ReceiveQueueSize is the global default SG prefetch window (§4.4)
	// before per-attribute division.
	ReceiveQueueSize int
	// DeadlockTimeoutSec bounds how long the coordinator waits for a
	// worker's notify before failing the query (§4.7).
	DeadlockTimeoutSec int
	// AlertMemoryQuotaInstance is the host memory threshold the watchdog
	// in internal/exec compares against (ported from
	// util/expensivequery.go's systemMemThreshold).
	AlertMemoryQuotaInstance uint64
}

// Default returns the conservative defaults used when no config file is
// loaded, matching the orders of magnitude named in §4.6.
func Default() *Config {
	return &Config{
		OOMUseTmpStorage:         true,
		MemLimit:                 256 << 20,
		NStreams:                 4,
		PipelineLimit:            8,
		NumJobs:                  4,
		ReceiveQueueSize:         16,
		DeadlockTimeoutSec:       30,
		AlertMemoryQuotaInstance: 0,
	}
}

var global atomic.Value

func init() {
	global.Store(Default())
}

// StoreGlobalConfig installs cfg as the process-wide configuration.
func StoreGlobalConfig(cfg *Config) {
	global.Store(cfg)
}

// GetGlobalConfig returns the current process-wide configuration.
func GetGlobalConfig() *Config {
	return global.Load().(*Config)
}

// Load parses a TOML config file into a fresh Config seeded from Default(),
// mirroring the teacher's BurntSushi/toml dependency for its own config
// loader.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
