package host

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Replies for a short painting run: paint white and turn left, and so on.
var paintReplies = [][2]int64{{1, 0}, {0, 0}, {1, 0}, {1, 0}, {0, 1}, {1, 0}, {1, 0}}

const paintedHull = "..#\n..#\n##.\n"

func TestRobotDrive(t *testing.T) {
	var (
		r    = NewRobot(Black)
		in   = make(chan int64, 1)
		out  = make(chan int64, 2)
		seen = make(chan []int64, 1)
	)
	go func() {
		var got []int64
		for _, p := range paintReplies {
			got = append(got, <-in)
			out <- p[0]
			out <- p[1]
		}
		close(out)
		seen <- got
	}()
	moves := 0
	r.Moved = func(*Robot) { moves++ }
	if err := r.drive(in, out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{0, 0, 0, 0, 1, 0, 0}, <-seen); diff != "" {
		t.Errorf("colours seen mismatch (-want +got):\n%s", diff)
	}
	if moves != len(paintReplies) {
		t.Errorf("Moved called %d times, want %d", moves, len(paintReplies))
	}
	if g, w := r.Pos, image.Pt(0, -1); g != w {
		t.Errorf("robot at %v, want %v", g, w)
	}
	if g, w := r.Dir, image.Pt(-1, 0); g != w {
		t.Errorf("robot facing %v, want %v", g, w)
	}
	if g, w := r.Hull.Painted(), 6; g != w {
		t.Errorf("painted %d panels, want %d", g, w)
	}
	if g := r.Hull.String(); g != paintedHull {
		t.Errorf("hull is\n%s\nwant\n%s", g, paintedHull)
	}
}

// scripted returns a program that reads one input before writing each reply.
func scripted(replies [][2]int64) []int64 {
	var prog []int64
	for _, p := range replies {
		prog = append(prog, 3, 1000, 104, p[0], 104, p[1])
	}
	return append(prog, 99)
}

func TestRobotRun(t *testing.T) {
	r := NewRobot(Black)
	if err := r.Run(scripted(paintReplies)); err != nil {
		t.Fatal(err)
	}
	if g, w := r.Hull.Painted(), 6; g != w {
		t.Errorf("painted %d panels, want %d", g, w)
	}
	if g := r.Hull.String(); g != paintedHull {
		t.Errorf("hull is\n%s\nwant\n%s", g, paintedHull)
	}
}

func TestRobotErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		prog []int64
		msg  string
	}{
		{"colour", scripted([][2]int64{{2, 0}}), "invalid colour"},
		{"turn", scripted([][2]int64{{1, 3}}), "invalid turn"},
		{"half reply", []int64{3, 1000, 104, 1, 99}, "between colour and turn"},
		{"fault", []int64{3, 1000, 204, -1, 99}, "address fault"},
	} {
		t.Run(c.name, func(t *testing.T) {
			err := NewRobot(Black).Run(c.prog)
			if err == nil || !strings.Contains(err.Error(), c.msg) {
				t.Errorf("Run returned %v, want error containing %q", err, c.msg)
			}
		})
	}
}

func TestRobotStartWhite(t *testing.T) {
	r := NewRobot(White)
	if g := r.Hull.Painted(); g != 0 {
		t.Errorf("new hull has %d painted panels", g)
	}
	if g, w := r.Hull.String(), "#\n"; g != w {
		t.Errorf("hull is %q, want %q", g, w)
	}
	if err := r.Run(scripted([][2]int64{{0, 1}})); err != nil {
		t.Fatal(err)
	}
	if g, w := r.Hull.String(), ".\n"; g != w {
		t.Errorf("hull is %q, want %q", g, w)
	}
}

func TestHullImage(t *testing.T) {
	h := NewHull()
	h.Paint(image.Pt(-1, 0), White)
	h.Paint(image.Pt(1, 1), White)
	h.Paint(image.Pt(0, 1), Black)

	if g, w := h.Bounds(), image.Rect(-1, 0, 2, 2); g != w {
		t.Fatalf("bounds are %v, want %v", g, w)
	}
	if g, w := h.Painted(), 3; g != w {
		t.Errorf("painted %d panels, want %d", g, w)
	}
	if g, w := h.String(), "#..\n..#\n"; g != w {
		t.Errorf("hull is %q, want %q", g, w)
	}

	img := h.Image()
	if g, w := img.Bounds(), image.Rect(0, 0, 3, 2); g != w {
		t.Fatalf("image bounds are %v, want %v", g, w)
	}
	if g := img.RGBAAt(0, 0); g != whitePanel {
		t.Errorf("pixel (0, 0) is %v, want white", g)
	}
	if g := img.RGBAAt(1, 0); g != blackPanel {
		t.Errorf("pixel (1, 0) is %v, want black", g)
	}

	var buf bytes.Buffer
	if err := h.WritePNG(&buf, 4); err != nil {
		t.Fatal(err)
	}
	dec, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if g, w := dec.Bounds(), image.Rect(0, 0, 12, 8); g != w {
		t.Fatalf("PNG bounds are %v, want %v", g, w)
	}
	for _, p := range []image.Point{{0, 0}, {3, 3}, {11, 4}} {
		if r, _, _, _ := dec.At(p.X, p.Y).RGBA(); r>>8 != uint32(whitePanel.R) {
			t.Errorf("PNG pixel %v has red %d, want white", p, r>>8)
		}
	}
	if r, _, _, _ := dec.At(4, 0).RGBA(); r>>8 != uint32(blackPanel.R) {
		t.Errorf("PNG pixel (4, 0) has red %d, want black", r>>8)
	}
}

func TestFit(t *testing.T) {
	for _, c := range []struct {
		r    image.Rectangle
		sz   image.Point
		want image.Rectangle
	}{
		{image.Rect(0, 0, 100, 100), image.Pt(2, 1), image.Rect(0, 25, 100, 75)},
		{image.Rect(0, 0, 100, 100), image.Pt(1, 2), image.Rect(25, 0, 75, 100)},
		{image.Rect(0, 0, 40, 20), image.Pt(4, 2), image.Rect(0, 0, 40, 20)},
		{image.Rect(0, 0, 40, 20), image.Pt(0, 0), image.Rect(0, 0, 40, 20)},
	} {
		if g := fit(c.r, c.sz); g != c.want {
			t.Errorf("fit(%v, %v) = %v, want %v", c.r, c.sz, g, c.want)
		}
	}
}
