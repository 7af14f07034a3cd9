package host

import (
	"errors"
	"fmt"

	"github.com/nf/nic/intcode"
)

// Patch sets the memory cell at Addr to Value before a program runs.
type Patch struct {
	Addr  int
	Value int64
}

func (p Patch) String() string { return fmt.Sprintf("%d=%d", p.Addr, p.Value) }

// Apply returns a copy of mem with the patches applied in order,
// grown with zeroed cells if a patch lies beyond its end.
func Apply(mem []int64, patches ...Patch) ([]int64, error) {
	m := append(intcode.Memory(nil), mem...)
	for _, p := range patches {
		if p.Addr < 0 || p.Addr >= intcode.MaxMem {
			return nil, fmt.Errorf("patch %v: address out of range", p)
		}
		m.Write(p.Addr, p.Value)
	}
	return m, nil
}

// Eval runs mem with the patches applied and returns the value at addr
// once the program halts. The program is given no input and its output
// is discarded.
func Eval(mem []int64, addr int, patches ...Patch) (int64, error) {
	if addr < 0 || addr >= intcode.MaxMem {
		return 0, fmt.Errorf("address %d out of range", addr)
	}
	mem, err := Apply(mem, patches...)
	if err != nil {
		return 0, err
	}
	var (
		in  = make(chan int64)
		out = make(chan int64)
		m   = intcode.NewMachine(mem, in, out)
	)
	close(in)
	go func() {
		for range out {
		}
	}()
	err = m.Run()
	close(out)
	if err != nil {
		return 0, err
	}
	return m.Mem.Read(addr), nil
}

// nounVerbMax bounds the noun and verb searched by NounVerb.
const nounVerbMax = 99

// NounVerb searches for the noun and verb, each between 0 and 99, that
// leave target at address 0 when written to addresses 1 and 2. Pairs
// for which the program faults are skipped.
func NounVerb(mem []int64, target int64) (noun, verb int64, err error) {
	if len(mem) == 0 {
		return 0, 0, errors.New("empty program")
	}
	for noun = 0; noun <= nounVerbMax; noun++ {
		for verb = 0; verb <= nounVerbMax; verb++ {
			v, err := Eval(mem, 0, Patch{1, noun}, Patch{2, verb})
			if err == nil && v == target {
				return noun, verb, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("no noun and verb produce %d", target)
}
