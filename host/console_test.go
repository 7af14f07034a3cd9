package host

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nf/nic/intcode"
)

// echo prints each input value until it reads a zero.
var echo = []int64{3, 100, 1006, 100, 10, 4, 100, 1105, 1, 0, 99}

func TestParseLine(t *testing.T) {
	for _, c := range []struct {
		line string
		want []int64
		ok   bool
	}{
		{"", []int64{}, true},
		{"1", []int64{1}, true},
		{"1,2", []int64{1, 2}, true},
		{" 1, -2 3\t4\r", []int64{1, -2, 3, 4}, true},
		{"1,,2", []int64{1, 2}, true},
		{"x", nil, false},
		{"1 2x", nil, false},
		{"1.5", nil, false},
	} {
		t.Run(fmt.Sprintf("%q", c.line), func(t *testing.T) {
			got, err := parseLine(c.line)
			if ok := err == nil; ok != c.ok {
				t.Fatalf("got error %v, want ok=%v", err, c.ok)
			}
			if diff := cmp.Diff(c.want, got); c.ok && diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConsole(t *testing.T) {
	for _, c := range []struct {
		name   string
		preset []int64
		input  string
		want   string
		err    error
	}{
		{"presets", []int64{4, 5, 0}, "", "4\n5\n", nil},
		{"lines", nil, "1, 2\n3 0\n", "1\n2\n3\n", nil},
		{"presets then lines", []int64{7}, "8\n0\n", "7\n8\n", nil},
		{"bad line skipped", nil, "1\nx 2\n3,0\n", "1\n3\n", nil},
		{"end of input", []int64{9}, "5\n", "9\n5\n", intcode.ChannelFault},
	} {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			cons := NewConsole(strings.NewReader(c.input), &out, c.preset...)
			err := NewRunner(false, nil).Run(echo, cons)
			if c.err == nil && err != nil {
				t.Fatalf("Run returned error %v", err)
			}
			if c.err != nil && !errors.Is(err, c.err) {
				t.Fatalf("Run returned error %v, want %v", err, c.err)
			}
			if g := out.String(); g != c.want {
				t.Errorf("output is %q, want %q", g, c.want)
			}
		})
	}
}

func TestConsoleSend(t *testing.T) {
	var out bytes.Buffer
	cons := NewConsole(nil, &out)
	cons.Buffer = 4
	if err := cons.Send(3, 2, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := NewRunner(false, nil).Run(echo, cons); err != nil {
		t.Fatal(err)
	}
	if g, w := out.String(), "3\n2\n1\n"; g != w {
		t.Errorf("output is %q, want %q", g, w)
	}

	if err := NewConsole(strings.NewReader(""), &out).Send(1); err == nil {
		t.Error("Send on a console with a reader succeeded")
	}
	full := NewConsole(nil, &out)
	if err := full.Send(make([]int64, sendBuffer+1)...); err == nil {
		t.Error("Send beyond the backlog succeeded")
	}
}
