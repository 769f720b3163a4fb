package sql

import "github.com/BurntSushi/toml"

// EngineConfig carries the tunable thresholds named throughout §4: the
// bounded-heap top-k cutoff, the hash-join chunk size, and the adaptive
// optimizer's measurement/materialization thresholds. It is loadable from a
// TOML file via the teacher's own config library, with compiled-in defaults
// when no file is supplied — this is deliberately not wired to a CLI flag
// or environment variable (out of scope per §1); it is just a struct an
// embedding application may populate.
type EngineConfig struct {
	SortHeapMaxK                 int64 `toml:"sort_heap_max_k"`
	HashJoinChunkSize             int   `toml:"hash_join_chunk_size"`
	AdaptiveMeasureCalls          int   `toml:"adaptive_measure_calls"`
	AdaptiveThresholdMillis       int64 `toml:"adaptive_threshold_millis"`
	AdaptiveMaterializeThreshold  int64 `toml:"adaptive_materialize_threshold"`
	IndexOverflowThreshold        int64 `toml:"index_overflow_threshold"`
}

// DefaultConfig returns the thresholds named explicitly in spec §4.5,
// §4.9, and §4.12.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		SortHeapMaxK:                1000,
		HashJoinChunkSize:           64,
		AdaptiveMeasureCalls:        3,
		AdaptiveThresholdMillis:     50,
		AdaptiveMaterializeThreshold: 500000,
		IndexOverflowThreshold:      100000,
	}
}

// LoadConfig decodes a TOML file over the compiled-in defaults, leaving any
// field the file omits untouched.
func LoadConfig(path string) (EngineConfig, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}
