package vm

import (
	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ExecutionType is the kind of call that created a frame.
type ExecutionType uint8

const (
	ExecTransaction ExecutionType = iota
	ExecCall
	ExecStaticCall
	ExecCallCode
	ExecDelegateCall
	ExecCreate
	ExecCreate2
	ExecEOFCreate
	ExecTxCreate
)

var executionTypeNames = [...]string{
	ExecTransaction:  "TRANSACTION",
	ExecCall:         "CALL",
	ExecStaticCall:   "STATICCALL",
	ExecCallCode:     "CALLCODE",
	ExecDelegateCall: "DELEGATECALL",
	ExecCreate:       "CREATE",
	ExecCreate2:      "CREATE2",
	ExecEOFCreate:    "EOFCREATE",
	ExecTxCreate:     "TXCREATE",
}

func (t ExecutionType) String() string {
	if int(t) < len(executionTypeNames) {
		return executionTypeNames[t]
	}
	return "UNKNOWN"
}

// returnsContainer reports whether the frame hands back its result through
// RETURNCONTRACT rather than RETURN.
func (t ExecutionType) returnsContainer() bool {
	return t == ExecEOFCreate || t == ExecTxCreate
}

// Frame is the execution context of one call depth. Frames form a strict
// stack: the parent pointer is set once when the frame is created.
type Frame struct {
	Type   ExecutionType
	parent *Frame
	depth  int

	pc     uint64
	stack  *Stack
	memory *Memory
	gas    GasMeter
	code   *compiler.CodeInfo

	caller     common.Address // CALLER
	address    common.Address // account whose balance and storage are used
	codeSource common.Address // account the code was loaded from
	value      *uint256.Int   // CALLVALUE
	transfer   *uint256.Int   // amount moved to address when the frame was entered
	input      []byte
	static     bool
	snapshot   int

	// window in the parent's memory that receives the output
	retOffset uint64
	retSize   uint64

	returnData []byte // output of the last finished sub-call
	startGas   int64
	pending    *Frame // child created by the instruction that just ran
}

// Parent returns the calling frame, nil for the top-level frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Depth returns the call depth, zero for the top-level frame.
func (f *Frame) Depth() int { return f.depth }

// PC returns the program counter.
func (f *Frame) PC() uint64 { return f.pc }

// Gas returns the gas left to the frame.
func (f *Frame) Gas() int64 { return f.gas.Remaining() }

// Stack returns the frame's operand stack.
func (f *Frame) Stack() *Stack { return f.stack }

// Memory returns the frame's scratch memory.
func (f *Frame) Memory() *Memory { return f.memory }

// Code returns the code being executed.
func (f *Frame) Code() *compiler.CodeInfo { return f.code }

// Caller returns the address reported by CALLER.
func (f *Frame) Caller() common.Address { return f.caller }

// Address returns the executing account.
func (f *Frame) Address() common.Address { return f.address }

// CodeSource returns the account the code was loaded from.
func (f *Frame) CodeSource() common.Address { return f.codeSource }

// Value returns the value reported by CALLVALUE.
func (f *Frame) Value() *uint256.Int { return f.value }

// Input returns the call data.
func (f *Frame) Input() []byte { return f.input }

// Static reports whether state modifications are forbidden.
func (f *Frame) Static() bool { return f.static }

// ReturnData returns the output of the last finished sub-call.
func (f *Frame) ReturnData() []byte { return f.returnData }

// getOp returns the n'th element in the code
func (f *Frame) getOp(n uint64) OpCode {
	if n < uint64(len(f.code.Code)) {
		return OpCode(f.code.Code[n])
	}
	return STOP
}

// expandMemory charges for and performs the memory expansion needed to
// access size bytes at offset. A zero size never expands.
func (f *Frame) expandMemory(offset, size *uint256.Int) error {
	memSize, overflow := calcMemSize64(offset, size)
	if overflow {
		return ErrGasUintOverflow
	}
	return f.expandMemoryTo(memSize)
}

func (f *Frame) expandMemoryTo(memSize uint64) error {
	if memSize == 0 {
		return nil
	}
	cost, err := memoryGasCost(f.memory, memSize)
	if err != nil {
		return err
	}
	if err := f.gas.ChargeUint64(cost); err != nil {
		return err
	}
	f.memory.Resize(toWordSize(memSize) * 32)
	return nil
}
