package vm

import "github.com/ethereum/go-ethereum/metrics"

var (
	emptyCallCounter  = metrics.NewRegisteredCounter("evm/calls/empty", nil)
	failedCallCounter = metrics.NewRegisteredCounter("evm/calls/failed", nil)
	fastPathHitMeter  = metrics.NewRegisteredMeter("evm/fastpath/hits", nil)
)
