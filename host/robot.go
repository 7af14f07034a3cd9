package host

import (
	"fmt"
	"image"

	"github.com/nf/nic/intcode"
)

// Panel colours.
const (
	Black int64 = 0
	White int64 = 1
)

// Robot is a hull painting robot driven by an IntCode program.
//
// Before each move the robot sends the program the colour of the panel
// beneath it. The program replies with the colour to paint that panel
// and the direction to turn, 0 for left and 1 for right, and the robot
// then moves forward one panel.
type Robot struct {
	Hull *Hull
	Pos  image.Point
	Dir  image.Point // unit vector; y grows downwards

	// Moved, if non-nil, is called after each move.
	Moved func(*Robot)
}

// NewRobot returns a robot facing up at the origin of an empty hull
// whose origin panel has the given colour.
func NewRobot(start int64) *Robot {
	h := NewHull()
	h.set(image.Point{}, start)
	return &Robot{Hull: h, Dir: image.Pt(0, -1)}
}

// Run executes mem as the robot's program until it halts.
func (r *Robot) Run(mem []int64) error {
	var (
		in   = make(chan int64, 1)
		out  = make(chan int64, 2)
		m    = intcode.NewMachine(mem, in, out)
		errc = make(chan error, 1)
	)
	go func() {
		err := m.Run()
		close(out)
		errc <- err
	}()
	if err := r.drive(in, out); err != nil {
		m.Close()
		if ferr := <-errc; ferr != nil {
			return ferr
		}
		return err
	}
	return <-errc
}

// drive exchanges values with the program until out is closed.
func (r *Robot) drive(in chan int64, out <-chan int64) error {
	for {
		// Keep only the colour of the current panel on offer.
		select {
		case <-in:
		default:
		}
		in <- r.Hull.Color(r.Pos)

		c, ok := <-out
		if !ok {
			return nil
		}
		turn, ok := <-out
		if !ok {
			return fmt.Errorf("robot: program stopped between colour and turn at %v", r.Pos)
		}
		if c != Black && c != White {
			return fmt.Errorf("robot: invalid colour %d at %v", c, r.Pos)
		}
		r.Hull.Paint(r.Pos, c)
		switch turn {
		case 0:
			r.Dir = image.Pt(r.Dir.Y, -r.Dir.X)
		case 1:
			r.Dir = image.Pt(-r.Dir.Y, r.Dir.X)
		default:
			return fmt.Errorf("robot: invalid turn %d at %v", turn, r.Pos)
		}
		r.Pos = r.Pos.Add(r.Dir)
		if r.Moved != nil {
			r.Moved(r)
		}
	}
}
