// Package intcode provides an implementation of an IntCode computer,
// called Machine, that can be used to execute IntCode programs.
package intcode

import (
	"errors"
	"fmt"
	"sync"
)

// Machine is an IntCode computer.
//
// A Machine exchanges values with its caller over two channels:
// it receives from In when executing IN and sends on Out when executing OUT.
// It never closes either channel.
//
// Words are int64 and ADD and MUL wrap on overflow.
// Memory grows on demand up to MaxMem cells.
type Machine struct {
	PC      int
	RelBase int64
	Mem     Memory
	In      <-chan int64
	Out     chan<- int64

	// Trace, if non-nil, is called before each instruction is executed
	// with PC set to the address of the instruction.
	Trace func(*Machine, Instruction)

	halted bool
	fault  error

	done      chan struct{}
	closeOnce sync.Once
}

// NewMachine returns a machine loaded with a copy of mem
// that reads from in and writes to out.
func NewMachine(mem []int64, in <-chan int64, out chan<- int64) *Machine {
	m := &Machine{
		Mem:  make(Memory, len(mem)),
		In:   in,
		Out:  out,
		done: make(chan struct{}),
	}
	copy(m.Mem, mem)
	return m
}

// MaxMem is the number of memory cells a Machine may address.
// Accessing an address at or beyond it is an AddressFault.
const MaxMem = 1 << 24

// ErrHalt is returned by Exec when the machine executes HLT,
// and by any later call to Exec.
var ErrHalt = errors.New("halt")

// Halted reports whether the machine has executed HLT.
func (m *Machine) Halted() bool { return m.halted }

// Close disconnects the machine from its caller. An IN or OUT that is
// blocked, or that executes later, fails with a ChannelFault.
// Close may be called from any goroutine, any number of times.
func (m *Machine) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Run executes instructions until the machine halts or faults.
// It returns nil on halt and a Fault otherwise.
func (m *Machine) Run() error {
	for {
		switch err := m.Exec(); err {
		case nil:
		case ErrHalt:
			return nil
		default:
			return err
		}
	}
}

// Exec executes the instruction at m.PC. It returns ErrHalt if that
// instruction is HLT, and otherwise only returns a non-nil error if the
// instruction faults. A faulted machine's PC is left at the faulting
// instruction, and every later call to Exec returns the same Fault.
func (m *Machine) Exec() (err error) {
	if m.halted {
		return ErrHalt
	}
	if m.fault != nil {
		return m.fault
	}
	var (
		pc = m.PC
		op Op
	)
	defer func() {
		if e := recover(); e != nil {
			if f, ok := e.(Fault); ok {
				f.Op, f.Addr = op, pc
				m.PC = pc
				m.fault = f
				err = f
			} else {
				panic(e)
			}
		}
	}()

	in, err := Decode(m.next())
	if err != nil {
		f := err.(Fault)
		f.Addr = pc
		m.PC = pc
		m.fault = f
		return f
	}
	op = in.Op

	if m.Trace != nil {
		in.Args = make([]int64, in.Len()-1)
		for i := range in.Args {
			in.Args[i] = peek(m.Mem, m.PC+i)
		}
		m.PC = pc
		m.Trace(m, in)
		m.PC = pc + 1
	}

	switch op {
	case HLT:
		m.halted = true
		return ErrHalt
	case ADD:
		a, b := m.read(in.Modes[0]), m.read(in.Modes[1])
		m.write(in.Out, a+b)
	case MUL:
		a, b := m.read(in.Modes[0]), m.read(in.Modes[1])
		m.write(in.Out, a*b)
	case IN:
		m.write(in.Out, m.recv())
	case OUT:
		m.send(m.read(in.Modes[0]))
	case JNZ, JZ:
		a, b := m.read(in.Modes[0]), m.read(in.Modes[1])
		if (a != 0) == (op == JNZ) {
			m.PC = m.addr(b)
		}
	case LT:
		a, b := m.read(in.Modes[0]), m.read(in.Modes[1])
		m.write(in.Out, boolValue(a < b))
	case EQ:
		a, b := m.read(in.Modes[0]), m.read(in.Modes[1])
		m.write(in.Out, boolValue(a == b))
	case RBO:
		m.RelBase += m.read(in.Modes[0])
	default:
		panic(fmt.Errorf("internal error: %v not implemented", op))
	}
	return nil
}

// next returns the word at m.PC and advances m.PC.
func (m *Machine) next() int64 {
	v := m.Mem.Read(m.addr(int64(m.PC)))
	m.PC++
	return v
}

// read consumes an operand and returns its value.
func (m *Machine) read(mode Mode) int64 {
	p := m.next()
	switch mode {
	case Position:
		return m.Mem.Read(m.addr(p))
	case Immediate:
		return p
	case Relative:
		return m.Mem.Read(m.addr(m.RelBase + p))
	}
	panic(Fault{FaultCode: ModeFault, Detail: fmt.Sprintf("invalid %v for read operand", mode)})
}

// write consumes an operand and stores v at the address it names.
func (m *Machine) write(mode Mode, v int64) {
	p := m.next()
	switch mode {
	case Position:
		m.Mem.Write(m.addr(p), v)
	case Relative:
		m.Mem.Write(m.addr(m.RelBase+p), v)
	default:
		panic(Fault{FaultCode: ModeFault, Detail: fmt.Sprintf("%v mode for write operand", mode)})
	}
}

// addr checks that a is a valid address: non-negative and below MaxMem.
func (m *Machine) addr(a int64) int {
	if a < 0 {
		panic(Fault{FaultCode: AddressFault, Detail: fmt.Sprintf("negative address %d", a)})
	}
	if a >= MaxMem {
		panic(Fault{FaultCode: AddressFault, Detail: fmt.Sprintf("address %d beyond memory limit", a)})
	}
	return int(a)
}

func (m *Machine) recv() int64 {
	select {
	case v, ok := <-m.In:
		if !ok {
			panic(Fault{FaultCode: ChannelFault, Detail: "input closed"})
		}
		return v
	case <-m.done:
		panic(Fault{FaultCode: ChannelFault, Detail: "machine closed while receiving"})
	}
}

func (m *Machine) send(v int64) {
	select {
	case m.Out <- v:
	case <-m.done:
		panic(Fault{FaultCode: ChannelFault, Detail: "machine closed while sending"})
	}
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// OpAddrs returns the memory addresses read or written by the operands
// of the instruction at m.PC, without executing it. Operands in immediate
// mode and operands that resolve to negative addresses are omitted.
func (m *Machine) OpAddrs() []int {
	in, err := Disasm(m.Mem, m.PC)
	if err != nil {
		return nil
	}
	n, out := in.Op.Params()
	modes := in.Modes
	if out {
		modes = append(modes[:n:n], in.Out)
	}
	var addrs []int
	for i, mode := range modes {
		a := in.Args[i]
		switch mode {
		case Position:
		case Relative:
			a += m.RelBase
		default:
			continue
		}
		if a >= 0 {
			addrs = append(addrs, int(a))
		}
	}
	return addrs
}

// Fault is returned by Exec when an instruction cannot be executed.
// A machine that has faulted cannot continue.
type Fault struct {
	FaultCode
	Op     Op
	Addr   int
	Detail string
}

func (e Fault) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s executing %s at %d", e.FaultCode, e.Op, e.Addr)
	}
	return fmt.Sprintf("%s executing %s at %d: %s", e.FaultCode, e.Op, e.Addr, e.Detail)
}

// Unwrap returns the fault code, so that errors.Is(err, AddressFault) and
// the like report the kind of fault.
func (e Fault) Unwrap() error { return e.FaultCode }

// FaultCode signifies the type of condition that stopped execution.
type FaultCode byte

const (
	DecodeFault  FaultCode = 0x01 // undefined opcode
	ModeFault    FaultCode = 0x02 // invalid addressing mode
	AddressFault FaultCode = 0x03 // negative address
	ChannelFault FaultCode = 0x04 // input or output disconnected
)

func (c FaultCode) Error() string { return c.String() }

func (c FaultCode) String() string {
	if s, ok := map[FaultCode]string{
		DecodeFault:  "decode fault",
		ModeFault:    "mode fault",
		AddressFault: "address fault",
		ChannelFault: "channel fault",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}
