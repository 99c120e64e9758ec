package compiler

import "github.com/ethereum/go-ethereum/metrics"

var (
	codeCacheHitCounter  = metrics.NewRegisteredCounter("compiler/codecache/hit", nil)
	codeCacheMissCounter = metrics.NewRegisteredCounter("compiler/codecache/miss", nil)

	analysisScheduledCounter = metrics.NewRegisteredCounter("compiler/analysis/scheduled", nil)
	analysisDroppedCounter   = metrics.NewRegisteredCounter("compiler/analysis/dropped", nil)
	analysisCompletedCounter = metrics.NewRegisteredCounter("compiler/analysis/completed", nil)
	analysisFailedCounter    = metrics.NewRegisteredCounter("compiler/analysis/failed", nil)
)
