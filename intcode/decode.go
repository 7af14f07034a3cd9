package intcode

import (
	"fmt"
	"strings"
)

// Split splits n at decimal digit position p,
// returning n / 10^p and n % 10^p.
func Split(n int64, p int) (hi, lo int64) {
	d := int64(1)
	for i := 0; i < p; i++ {
		d *= 10
	}
	return n / d, n % d
}

// SplitModes splits the parameter mode digits of an instruction word
// (the word with its opcode digits removed) into k modes, least significant
// first. The remaining value is returned as the leftover mode.
// A digit or leftover outside {0, 1, 2} is reported as a ModeFault.
func SplitModes(modes int64, k int) ([]Mode, Mode, error) {
	ms := make([]Mode, 0, k)
	rest := modes
	for i := 0; i < k; i++ {
		var d int64
		rest, d = Split(rest, 1)
		if m := Mode(d); d < 0 || !m.valid() {
			return nil, 0, Fault{FaultCode: ModeFault, Detail: fmt.Sprintf("invalid mode %d for operand %d", d, i+1)}
		}
		ms = append(ms, Mode(d))
	}
	if rest < 0 || rest > int64(Relative) {
		return nil, 0, Fault{FaultCode: ModeFault, Detail: fmt.Sprintf("invalid leftover mode %d", rest)}
	}
	return ms, Mode(rest), nil
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Op    Op
	Modes []Mode // modes of the value operands
	Out   Mode   // mode of the write operand, if Op has one

	// Args holds the raw operand words. It is only populated by Disasm
	// and for instructions passed to a Machine's Trace function.
	Args []int64
}

// Decode decodes the instruction word w.
// It returns a DecodeFault if the opcode is not defined
// and a ModeFault if any mode digit is invalid.
func Decode(w int64) (Instruction, error) {
	if w < 0 {
		return Instruction{}, Fault{FaultCode: DecodeFault, Detail: fmt.Sprintf("negative instruction word %d", w)}
	}
	modes, code := Split(w, 2)
	op, ok := toOp(code)
	if !ok {
		return Instruction{}, Fault{FaultCode: DecodeFault, Detail: fmt.Sprintf("unknown opcode %d", code)}
	}
	in := Instruction{Op: op}
	if op == HLT {
		return in, nil
	}
	n, _ := op.Params()
	ms, rest, err := SplitModes(modes, n)
	if err != nil {
		f := err.(Fault)
		f.Op = op
		return Instruction{}, f
	}
	in.Modes, in.Out = ms, rest
	return in, nil
}

// Len returns the number of memory words the instruction occupies,
// including the instruction word itself.
func (in Instruction) Len() int {
	n, out := in.Op.Params()
	if out {
		n++
	}
	return 1 + n
}

func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	n, out := in.Op.Params()
	for i := 0; i < n; i++ {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(operand(in.Modes, in.Args, i))
	}
	if out {
		var args []int64
		if n < len(in.Args) {
			args = in.Args[n:]
		}
		b.WriteString(" -> ")
		b.WriteString(operand([]Mode{in.Out}, args, 0))
	}
	return b.String()
}

// operand formats operand i: [a] for position, a for immediate
// and [rb+a] for relative.
func operand(modes []Mode, args []int64, i int) string {
	var (
		m = Position
		a = "?"
	)
	if i < len(modes) {
		m = modes[i]
	}
	if i < len(args) {
		a = fmt.Sprint(args[i])
	}
	switch m {
	case Immediate:
		return a
	case Relative:
		if !strings.HasPrefix(a, "-") {
			a = "+" + a
		}
		return "[rb" + a + "]"
	default:
		return "[" + a + "]"
	}
}

// Disasm decodes the instruction at addr in mem, including its raw operands.
// Words beyond the end of mem read as zero.
func Disasm(mem []int64, addr int) (Instruction, error) {
	in, err := Decode(peek(mem, addr))
	if err != nil {
		return in, err
	}
	in.Args = make([]int64, in.Len()-1)
	for i := range in.Args {
		in.Args[i] = peek(mem, addr+1+i)
	}
	return in, nil
}

func peek(mem []int64, addr int) int64 {
	if addr < 0 || addr >= len(mem) {
		return 0
	}
	return mem[addr]
}
