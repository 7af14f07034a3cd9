package intcode

import "fmt"

// Op represents an IntCode opcode.
type Op int64

const (
	ADD Op = 1  // add
	MUL Op = 2  // multiply
	IN  Op = 3  // input
	OUT Op = 4  // output
	JNZ Op = 5  // jump if true
	JZ  Op = 6  // jump if false
	LT  Op = 7  // less than
	EQ  Op = 8  // equals
	RBO Op = 9  // relative base offset
	HLT Op = 99 // halt
)

// toOp maps the low two digits of an instruction word to an Op.
// It reports false for values that name no operation.
func toOp(v int64) (Op, bool) {
	switch v {
	case 1:
		return ADD, true
	case 2:
		return MUL, true
	case 3:
		return IN, true
	case 4:
		return OUT, true
	case 5:
		return JNZ, true
	case 6:
		return JZ, true
	case 7:
		return LT, true
	case 8:
		return EQ, true
	case 9:
		return RBO, true
	case 99:
		return HLT, true
	}
	return 0, false
}

// Params reports the number of operands the op reads as values
// and whether it takes a further operand naming a write target.
func (op Op) Params() (in int, out bool) {
	switch op {
	case ADD, MUL, LT, EQ:
		return 2, true
	case IN:
		return 0, true
	case OUT, RBO:
		return 1, false
	case JNZ, JZ:
		return 2, false
	}
	return 0, false
}

func (op Op) String() string {
	if s, ok := opStrings[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int64(op))
}

var opStrings = map[Op]string{
	ADD: "ADD",
	MUL: "MUL",
	IN:  "IN",
	OUT: "OUT",
	JNZ: "JNZ",
	JZ:  "JZ",
	LT:  "LT",
	EQ:  "EQ",
	RBO: "RBO",
	HLT: "HLT",
}

// Mode is a parameter addressing mode.
type Mode int8

const (
	Position  Mode = 0 // parameter is an address
	Immediate Mode = 1 // parameter is the value itself
	Relative  Mode = 2 // parameter is an address relative to the relative base
)

func (m Mode) valid() bool { return m >= Position && m <= Relative }

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	case Relative:
		return "relative"
	}
	return fmt.Sprintf("mode(%d)", int8(m))
}
