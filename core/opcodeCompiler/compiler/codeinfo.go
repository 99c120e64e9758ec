package compiler

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// AnalysisState is the position of a CodeInfo in the hot code life cycle.
type AnalysisState uint32

const (
	NotAnalyzed AnalysisState = iota
	AnalysisScheduled
	AnalysisComplete
)

func (s AnalysisState) String() string {
	switch s {
	case NotAnalyzed:
		return "not analyzed"
	case AnalysisScheduled:
		return "scheduled"
	case AnalysisComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// AnalysisMode is the kind of hot path an analysis produces.
type AnalysisMode uint8

const (
	ModeNone AnalysisMode = iota
	ModePatternMatching
	ModeSubsegmentCompiled
)

func (m AnalysisMode) String() string {
	switch m {
	case ModePatternMatching:
		return "pattern matching"
	case ModeSubsegmentCompiled:
		return "subsegment compiled"
	default:
		return "none"
	}
}

// CodeInfo is the shared, read-only view of one piece of contract code.
// The jump bitmap and the hot path are published once through atomic
// pointers and never changed afterwards.
type CodeInfo struct {
	Code []byte
	Hash common.Hash

	jumps *JumpDestAnalyzer
	cache *CodeCache // nil for code that never becomes hot

	executions atomic.Uint64
	state      atomic.Uint32
	hot        atomic.Pointer[HotPath]
}

// EmptyCodeInfo is shared by every account without code.
var EmptyCodeInfo = &CodeInfo{jumps: EmptyJumpDestAnalyzer}

// NewCodeInfo creates a CodeInfo that is not attached to a cache: its
// jump destinations are analysed eagerly and it never schedules hot path
// analysis.
func NewCodeInfo(hash common.Hash, code []byte) *CodeInfo {
	if len(code) == 0 {
		return EmptyCodeInfo
	}
	return &CodeInfo{
		Code:  code,
		Hash:  hash,
		jumps: NewJumpDestAnalyzer(code, true),
	}
}

// IsEmpty reports whether there is no code to execute.
func (c *CodeInfo) IsEmpty() bool {
	return len(c.Code) == 0
}

// ValidJumpDest reports whether pc is a valid jump destination.
func (c *CodeInfo) ValidJumpDest(pc uint64) bool {
	return c.jumps.IsValidJumpDestination(pc)
}

// JumpDests exposes the jump destination analyzer.
func (c *CodeInfo) JumpDests() *JumpDestAnalyzer {
	return c.jumps
}

// Executions returns the number of noticed executions.
func (c *CodeInfo) Executions() uint64 {
	return c.executions.Load()
}

// State returns the analysis state and, once complete, the mode of the
// published hot path.
func (c *CodeInfo) State() (AnalysisState, AnalysisMode) {
	state := AnalysisState(c.state.Load())
	if hot := c.hot.Load(); hot != nil {
		return state, hot.Mode
	}
	return state, ModeNone
}

// HotPath returns the published hot path or nil.
func (c *CodeInfo) HotPath() *HotPath {
	return c.hot.Load()
}

// NoticeExecution counts one execution of the code. The execution that
// brings the counter to a tier threshold schedules the analysis for that
// tier, pattern matching being checked first. Counter values are unique, so
// at most one caller can hit a given threshold, and the state CAS keeps a
// second tier from starting while the first is pending or published.
func (c *CodeInfo) NoticeExecution() {
	if c.cache == nil || len(c.Code) == 0 {
		return
	}
	n := c.executions.Add(1)

	cfg := &c.cache.config
	var mode AnalysisMode
	switch {
	case cfg.EnablePatternMatching && n == cfg.PatternMatchingThreshold:
		mode = ModePatternMatching
	case cfg.EnableJit && n == cfg.JitThreshold:
		mode = ModeSubsegmentCompiled
	default:
		return
	}
	if !c.state.CompareAndSwap(uint32(NotAnalyzed), uint32(AnalysisScheduled)) {
		return
	}
	if !c.cache.schedule(analysisTask{info: c, kind: taskHotPath, mode: mode}) {
		c.state.Store(uint32(NotAnalyzed))
	}
}

// publish stores the hot path and completes the analysis.
func (c *CodeInfo) publish(hot *HotPath) {
	c.hot.Store(hot)
	c.state.Store(uint32(AnalysisComplete))
}

// abandon returns a scheduled analysis to the not analyzed state.
func (c *CodeInfo) abandon() {
	c.state.CompareAndSwap(uint32(AnalysisScheduled), uint32(NotAnalyzed))
}
