package compiler

// MaxFastPathPC is the first code offset that is never indexed by a hot path.
const MaxFastPathPC = 1 << 16

// OpInfo is the static description of an opcode needed by the analysis.
type OpInfo struct {
	ConstantGas uint64
	Pops        int
	Pushes      int

	// Straight marks opcodes with constant gas and no memory, state or
	// control flow effects. Only those may run inside a segment.
	Straight bool
}

// InstructionSet describes the interpreter's instruction table to the
// compiler, which cannot import core/vm.
type InstructionSet interface {
	OpInfo(op ByteCode) (OpInfo, bool)
}

// Instruction is a decoded opcode together with its immediate data.
type Instruction struct {
	PC   uint64
	Op   ByteCode
	Data []byte
}

// Size returns the number of code bytes the instruction occupies.
func (ins Instruction) Size() uint64 {
	return 1 + uint64(len(ins.Data))
}

// truncated reports whether a PUSH ran past the end of the code.
func (ins Instruction) truncated() bool {
	return len(ins.Data) < ins.Op.immediateSize()
}

// SegmentKind tells how a segment is executed.
type SegmentKind uint8

const (
	SegmentFused    SegmentKind = iota + 1 // one handler per Pattern
	SegmentCompiled                        // a straight run of instructions
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentFused:
		return "fused"
	case SegmentCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Segment is a run of straight instructions starting at Ops[0].PC that can
// be executed with a single gas charge and a single stack bounds check.
type Segment struct {
	Kind      SegmentKind
	Pattern   Pattern
	Ops       []Instruction
	Length    uint64 // code bytes covered
	StaticGas uint64
	MinStack  int // stack items required at entry
	MaxGrowth int // largest stack growth at any point of the run
}

// StartPC returns the offset of the first instruction.
func (s *Segment) StartPC() uint64 {
	return s.Ops[0].PC
}

func newSegment(kind SegmentKind, pattern Pattern, ops []Instruction, isa InstructionSet) *Segment {
	seg := &Segment{
		Kind:    kind,
		Pattern: pattern,
		Ops:     ops,
	}
	height := 0
	for _, ins := range ops {
		info, _ := isa.OpInfo(ins.Op)
		seg.Length += ins.Size()
		seg.StaticGas += info.ConstantGas
		if need := info.Pops - height; need > seg.MinStack {
			seg.MinStack = need
		}
		height += info.Pushes - info.Pops
		if height > seg.MaxGrowth {
			seg.MaxGrowth = height
		}
	}
	return seg
}

// HotPath maps code offsets to segments. It is published once and never
// modified afterwards.
type HotPath struct {
	Mode     AnalysisMode
	segments []*Segment
	count    int
}

// SegmentAt returns the segment starting at pc, if any.
func (h *HotPath) SegmentAt(pc uint64) *Segment {
	if pc >= uint64(len(h.segments)) {
		return nil
	}
	return h.segments[pc]
}

// Len returns the number of segments.
func (h *HotPath) Len() int {
	return h.count
}

// Segments returns the segments ordered by start offset.
func (h *HotPath) Segments() []*Segment {
	segs := make([]*Segment, 0, h.count)
	for _, s := range h.segments {
		if s != nil {
			segs = append(segs, s)
		}
	}
	return segs
}
