package plan

import "github.com/relit/relit/sql"

var globalConfig = sql.DefaultConfig()

// SetConfig overrides the tunables every operator in this package consults
// (the sort bounded-heap cutoff, the hash-join chunk size, the adaptive
// optimizer's thresholds). It is not safe to call concurrently with query
// execution — call it once at startup, the same way an embedding
// application loads its sql.EngineConfig before serving traffic.
func SetConfig(cfg sql.EngineConfig) { globalConfig = cfg }

func engineConfig() sql.EngineConfig { return globalConfig }
