// Package host runs IntCode machines and connects them to the world:
// text consoles, amplifier chains, and the hull painting robot.
package host

import (
	"fmt"
	"log"
	"sync"

	"github.com/nf/nic/intcode"
)

// StateKind describes why a StateFunc was called.
type StateKind int

const (
	ClearState StateKind = iota // execution resumed
	BreakState                  // stopped at the break address
	DebugState                  // passed the debug address
	PauseState                  // paused by the debugger
	HaltState                   // machine halted or faulted
	QuietState                  // periodic report while running
)

func (k StateKind) String() string {
	switch k {
	case ClearState:
		return "clear"
	case BreakState:
		return "break"
	case DebugState:
		return "debug"
	case PauseState:
		return "pause"
	case HaltState:
		return "halt"
	case QuietState:
		return "quiet"
	}
	return fmt.Sprintf("state(%d)", int(k))
}

// StateFunc is called from the goroutine executing m to report its state.
// It must not retain m.
type StateFunc func(m *intcode.Machine, k StateKind)

// quietSteps is the number of instructions between QuietState reports.
const quietSteps = 4096

// Runner executes a program on a machine connected to a Console.
//
// In developer mode a Runner keeps going after the machine halts or
// faults, so that Swap can load a new program, and the debugger commands
// given to Debug take effect.
type Runner struct {
	// Trace, if non-nil, is installed as the Trace hook of each machine.
	Trace func(*intcode.Machine, intcode.Instruction)

	// Halted, if non-nil, is called with each machine that halts,
	// before its output has been flushed. It must not retain the machine.
	Halted func(*intcode.Machine)

	dev   bool
	state StateFunc

	swap     chan []int64
	swapDone chan bool
	quit     chan struct{}
	quitOnce sync.Once

	resume chan bool // true to continue, false to step

	mu       sync.Mutex
	brk, dbg int // -1 when unset
	paused   bool
}

// NewRunner returns a Runner. The state function, which may be nil,
// receives reports from the executing machine in developer mode.
func NewRunner(devMode bool, state StateFunc) *Runner {
	return &Runner{
		dev:      devMode,
		state:    state,
		swap:     make(chan []int64),
		swapDone: make(chan bool),
		quit:     make(chan struct{}),
		resume:   make(chan bool, 1),
		brk:      -1,
		dbg:      -1,
	}
}

// Swap replaces the running program with a new machine loaded with mem.
// It may only be called in developer mode, while Run is executing.
func (r *Runner) Swap(mem []int64) {
	if !r.dev {
		panic("Swap called while not running in dev mode")
	}
	r.swap <- mem
	<-r.swapDone
}

// Stop makes Run return, stopping the running machine.
func (r *Runner) Stop() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// Debug controls the debugger. The commands are:
//
//	break, b   stop before executing the instruction at addr
//	debug, d   report the state at addr and keep running
//	pause, p   stop before the next instruction
//	step, s    execute one instruction and stop again
//	cont, c    continue running
//	exit       stop running, as Stop does
//
// For break and debug a negative addr clears the address.
func (r *Runner) Debug(cmd string, addr int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addr < 0 {
		addr = -1
	}
	switch cmd {
	case "break", "b":
		r.brk = addr
	case "debug", "d":
		r.dbg = addr
	case "pause", "p":
		r.paused = true
	case "step", "s":
		r.paused = true
		r.wake(false)
	case "cont", "c":
		r.paused = false
		r.wake(true)
	case "exit":
		r.Stop()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (r *Runner) wake(cont bool) {
	select {
	case r.resume <- cont:
	default:
	}
}

// Run executes mem connected to cons. Outside developer mode it returns
// when the machine halts, with nil, or faults, with the fault. In
// developer mode faults are logged and Run only returns once Stop is
// called.
func (r *Runner) Run(mem []int64, cons *Console) error {
	var (
		execErr = make(chan error)
		running = true
		s       = r.start(mem, cons, execErr)
	)
	for {
		select {
		case mem := <-r.swap:
			if running {
				s.close()
				<-execErr
			}
			s = r.start(mem, cons, execErr)
			running = true
			r.swapDone <- true
		case err := <-execErr:
			running = false
			if !r.dev {
				return err
			}
			if err != nil {
				log.Printf("intcode: %v", err)
			} else {
				log.Print("intcode: halted")
			}
		case <-r.quit:
			if running {
				s.close()
				<-execErr
			}
			return nil
		}
	}
}

func (r *Runner) start(mem []int64, cons *Console, execErr chan<- error) *session {
	s := cons.start(mem)
	s.m.Trace = r.Trace
	go func() {
		err := r.exec(s)
		s.finish()
		execErr <- err
	}()
	return s
}

func (r *Runner) exec(s *session) error {
	m := s.m
	for steps := 1; ; steps++ {
		select {
		case <-s.stop:
			return nil
		default:
		}
		if r.dev && r.check(s) {
			return nil
		}
		switch err := m.Exec(); err {
		case nil:
		case intcode.ErrHalt:
			if r.Halted != nil {
				r.Halted(m)
			}
			r.report(m, HaltState)
			return nil
		default:
			select {
			case <-s.stop:
				// Swapped out or stopped while blocked on input or output.
				return nil
			default:
			}
			r.report(m, HaltState)
			return err
		}
		if steps%quietSteps == 0 {
			r.report(m, QuietState)
		}
	}
}

// check applies the debugger settings before the next instruction,
// waiting while execution is paused. It reports whether the session
// was stopped while waiting.
func (r *Runner) check(s *session) (stopped bool) {
	m := s.m
	r.mu.Lock()
	brk, dbg, paused := r.brk, r.dbg, r.paused
	if m.PC == brk {
		r.paused = true
	}
	r.mu.Unlock()

	if m.PC == dbg {
		r.report(m, DebugState)
	}
	if !paused && m.PC != brk {
		return false
	}
	select {
	case <-r.resume:
		// Stale from before this stop.
	default:
	}
	if paused {
		r.report(m, PauseState)
	} else {
		r.report(m, BreakState)
	}
	select {
	case cont := <-r.resume:
		if cont {
			r.report(m, ClearState)
		}
		return false
	case <-s.stop:
		return true
	}
}

func (r *Runner) report(m *intcode.Machine, k StateKind) {
	if r.dev && r.state != nil {
		r.state(m, k)
	}
}
