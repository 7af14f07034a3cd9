package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/nf/nic/intcode"
)

// Console connects a machine to text streams.
// Input values are the preset values followed by the decimal integers
// read from the input reader, one or more per line separated by commas
// or spaces. Each output value is printed on its own line.
type Console struct {
	// Buffer is the capacity of the channels between the console and
	// each machine it runs. Zero means unbuffered.
	Buffer int

	preset []int64
	r      io.Reader
	w      io.Writer

	once sync.Once
	src  chan int64 // values from r, or from Send when r is nil
}

// NewConsole returns a console that reads input from r and writes output
// to w. The preset values are given to each machine before any input.
// If r is nil, input is provided by calls to Send.
func NewConsole(r io.Reader, w io.Writer, preset ...int64) *Console {
	return &Console{preset: preset, r: r, w: w}
}

const sendBuffer = 1024

func (c *Console) source() chan int64 {
	c.once.Do(func() {
		if c.r == nil {
			c.src = make(chan int64, sendBuffer)
			return
		}
		c.src = make(chan int64)
		go readValues(c.r, c.src)
	})
	return c.src
}

// Send queues values for the running machine's input.
// It may only be used by consoles created without a reader.
func (c *Console) Send(vals ...int64) error {
	if c.r != nil {
		return errors.New("console reads its input from a reader")
	}
	src := c.source()
	for i, v := range vals {
		select {
		case src <- v:
		default:
			return fmt.Errorf("input backlog full, dropped %d values", len(vals)-i)
		}
	}
	return nil
}

// readValues parses lines of integers from r and sends them on ch.
// It closes ch at end of input.
func readValues(r io.Reader, ch chan<- int64) {
	defer close(ch)
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		vals, err := parseLine(s.Text())
		if err != nil {
			log.Printf("console: line %d: %v", n, err)
			continue
		}
		for _, v := range vals {
			ch <- v
		}
	}
	if err := s.Err(); err != nil {
		log.Printf("console: reading input: %v", err)
	}
}

func parseLine(line string) ([]int64, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\r'
	})
	vals := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// session is one machine connected to a console.
type session struct {
	m *intcode.Machine

	out     chan int64
	stop    chan struct{}
	printed chan struct{}

	stopOnce sync.Once
}

// start constructs a machine loaded with mem and starts
// the goroutines that feed its input and print its output.
func (c *Console) start(mem []int64) *session {
	var (
		in  = make(chan int64, c.Buffer)
		out = make(chan int64, c.Buffer)
		s   = &session{
			m:       intcode.NewMachine(mem, in, out),
			out:     out,
			stop:    make(chan struct{}),
			printed: make(chan struct{}),
		}
	)
	go c.feed(in, s.stop)
	go c.print(out, s.printed)
	return s
}

func (c *Console) feed(in chan<- int64, stop <-chan struct{}) {
	for _, v := range c.preset {
		select {
		case in <- v:
		case <-stop:
			return
		}
	}
	src := c.source()
	for {
		select {
		case v, ok := <-src:
			if !ok {
				close(in)
				return
			}
			select {
			case in <- v:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}

func (c *Console) print(out <-chan int64, done chan<- struct{}) {
	defer close(done)
	w := bufio.NewWriter(c.w)
	failed := false
	for v := range out {
		if failed {
			continue
		}
		_, err := fmt.Fprintln(w, v)
		if err == nil && len(out) == 0 {
			err = w.Flush()
		}
		if err != nil {
			log.Printf("console: writing output: %v", err)
			failed = true
		}
	}
	if !failed {
		if err := w.Flush(); err != nil {
			log.Printf("console: writing output: %v", err)
		}
	}
}

// close disconnects the machine and stops feeding it input.
func (s *session) close() {
	s.stopFeed()
	s.m.Close()
}

func (s *session) stopFeed() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// finish stops feeding input and waits for all output to be printed.
// It must be called once, after the machine has stopped.
func (s *session) finish() {
	s.stopFeed()
	close(s.out)
	<-s.printed
}
