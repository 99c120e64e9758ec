package compiler

import (
	"fmt"
	"sync"

	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CodeCache keeps one CodeInfo per code hash and owns the goroutines that
// analyse code in the background.
type CodeCache struct {
	config params.InterpreterConfig
	isa    InstructionSet
	codes  *lru.Cache[common.Hash, *CodeInfo]
	create singleflight.Group // Concurrent misses on one hash build a single entry

	tasks     chan analysisTask
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewCodeCache creates a cache and starts its analysis workers. isa
// describes the instruction table the hot paths are built for.
func NewCodeCache(config params.InterpreterConfig, isa InstructionSet) (*CodeCache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	codes, err := lru.New[common.Hash, *CodeInfo](config.CodeCacheSize)
	if err != nil {
		return nil, err
	}
	c := &CodeCache{
		config: config,
		isa:    isa,
		codes:  codes,
		tasks:  make(chan analysisTask, config.AnalysisQueueSize),
		quit:   make(chan struct{}),
	}
	c.wg.Add(config.AnalysisWorkers)
	for i := 0; i < config.AnalysisWorkers; i++ {
		go c.taskProcessor()
	}
	return c, nil
}

// Config returns the interpreter config the cache was created with.
func (c *CodeCache) Config() params.InterpreterConfig {
	return c.config
}

// InstructionSet returns the instruction table the hot paths are built for.
func (c *CodeCache) InstructionSet() InstructionSet {
	return c.isa
}

// GetOrCreate returns the CodeInfo of the given code, creating and
// publishing it on first use. Code longer than the eager analysis limit has
// its jump destinations analysed by a worker.
func (c *CodeCache) GetOrCreate(hash common.Hash, code []byte) *CodeInfo {
	if len(code) == 0 {
		return EmptyCodeInfo
	}
	if info, ok := c.codes.Get(hash); ok {
		codeCacheHitCounter.Inc(1)
		checkConsistency(info, hash, code)
		return info
	}
	v, _, _ := c.create.Do(string(hash[:]), func() (interface{}, error) {
		return c.add(hash, code), nil
	})
	info := v.(*CodeInfo)
	checkConsistency(info, hash, code)
	return info
}

// add creates and publishes the entry of code unless another one got there
// first.
func (c *CodeCache) add(hash common.Hash, code []byte) *CodeInfo {
	if info, ok := c.codes.Peek(hash); ok {
		return info
	}
	codeCacheMissCounter.Inc(1)

	eager := len(code) <= c.config.EagerAnalysisLimit
	info := &CodeInfo{
		Code:  code,
		Hash:  hash,
		jumps: NewJumpDestAnalyzer(code, eager),
		cache: c,
	}
	if prev, ok, _ := c.codes.PeekOrAdd(hash, info); ok {
		return prev
	}
	if !eager {
		c.schedule(analysisTask{info: info, kind: taskJumpDests})
	}
	return info
}

// Len returns the number of cached code hashes.
func (c *CodeCache) Len() int {
	return c.codes.Len()
}

// Close stops the analysis workers. Tasks still queued are dropped and
// their entries stay on the generic path.
func (c *CodeCache) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.wg.Wait()
		log.Debug("Code cache closed", "codes", c.codes.Len())
	})
}

// checkConsistency panics if a cached entry does not belong to code. The
// cache is keyed by the code hash, so a mismatch means the caller handed in
// a wrong hash and any further execution would be unsound.
func checkConsistency(info *CodeInfo, hash common.Hash, code []byte) {
	if len(info.Code) != len(code) {
		panic(fmt.Sprintf("code cache corrupted: hash %x cached with %d bytes, got %d", hash, len(info.Code), len(code)))
	}
}
