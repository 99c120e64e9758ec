package compiler

// Pattern identifies a fused instruction sequence that the interpreter runs
// with a single handler.
type Pattern uint8

const (
	NoPattern Pattern = iota
	Push1Push1
	Push1Add
	Push1Shl
	Swap1Pop
	PopPop
	Swap2Swap1
	Swap2Pop
	Swap1Dup2
	Dup2Lt
	Dup3And
	IsZeroPush2
	Swap1PopSwap2Swap1
	Swap3PopPopPop
	SubSltIsZeroPush2
	AndDup2AddSwap1Dup2Lt

	patternCount
)

var patternNames = [patternCount]string{
	NoPattern:             "NoPattern",
	Push1Push1:            "Push1Push1",
	Push1Add:              "Push1Add",
	Push1Shl:              "Push1Shl",
	Swap1Pop:              "Swap1Pop",
	PopPop:                "PopPop",
	Swap2Swap1:            "Swap2Swap1",
	Swap2Pop:              "Swap2Pop",
	Swap1Dup2:             "Swap1Dup2",
	Dup2Lt:                "Dup2Lt",
	Dup3And:               "Dup3And",
	IsZeroPush2:           "IsZeroPush2",
	Swap1PopSwap2Swap1:    "Swap1PopSwap2Swap1",
	Swap3PopPopPop:        "Swap3PopPopPop",
	SubSltIsZeroPush2:     "SubSltIsZeroPush2",
	AndDup2AddSwap1Dup2Lt: "AndDup2AddSwap1Dup2Lt",
}

func (p Pattern) String() string {
	if p < patternCount {
		return patternNames[p]
	}
	return "UnknownPattern"
}

// fusionPatterns is ordered longest first, the first match at a pc wins.
var fusionPatterns = []struct {
	pattern Pattern
	ops     []ByteCode
}{
	{AndDup2AddSwap1Dup2Lt, []ByteCode{AND, DUP2, ADD, SWAP1, DUP2, LT}},
	{Swap1PopSwap2Swap1, []ByteCode{SWAP1, POP, SWAP2, SWAP1}},
	{Swap3PopPopPop, []ByteCode{SWAP3, POP, POP, POP}},
	{SubSltIsZeroPush2, []ByteCode{SUB, SLT, ISZERO, PUSH2}},
	{Push1Push1, []ByteCode{PUSH1, PUSH1}},
	{Push1Add, []ByteCode{PUSH1, ADD}},
	{Push1Shl, []ByteCode{PUSH1, SHL}},
	{Swap1Pop, []ByteCode{SWAP1, POP}},
	{PopPop, []ByteCode{POP, POP}},
	{Swap2Swap1, []ByteCode{SWAP2, SWAP1}},
	{Swap2Pop, []ByteCode{SWAP2, POP}},
	{Swap1Dup2, []ByteCode{SWAP1, DUP2}},
	{Dup2Lt, []ByteCode{DUP2, LT}},
	{Dup3And, []ByteCode{DUP3, AND}},
	{IsZeroPush2, []ByteCode{ISZERO, PUSH2}},
}

// matchPattern returns the longest fusion pattern that ins starts with.
func matchPattern(ins []Instruction) (Pattern, int) {
	for _, p := range fusionPatterns {
		if len(ins) < len(p.ops) {
			continue
		}
		matched := true
		for i, op := range p.ops {
			if ins[i].Op != op {
				matched = false
				break
			}
		}
		if matched {
			return p.pattern, len(p.ops)
		}
	}
	return NoPattern, 0
}
