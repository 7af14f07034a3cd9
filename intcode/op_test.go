package intcode

import "testing"

// Check that every opcode maps back to itself,
// has a string form, and that nothing else decodes.
func TestOps(t *testing.T) {
	seen := 0
	for v := int64(0); v < 100; v++ {
		op, ok := toOp(v)
		if !ok {
			continue
		}
		seen++
		if int64(op) != v {
			t.Errorf("toOp(%d) = %d", v, int64(op))
		}
		if _, ok := opStrings[op]; !ok {
			t.Errorf("no string for op %d", v)
		}
	}
	if seen != len(opStrings) {
		t.Errorf("%d ops decode, want %d", seen, len(opStrings))
	}
	if g, w := Op(42).String(), "op(42)"; g != w {
		t.Errorf("Op(42).String() = %q, want %q", g, w)
	}
}

func TestOpParams(t *testing.T) {
	for _, c := range []struct {
		op  Op
		in  int
		out bool
	}{
		{ADD, 2, true},
		{MUL, 2, true},
		{IN, 0, true},
		{OUT, 1, false},
		{JNZ, 2, false},
		{JZ, 2, false},
		{LT, 2, true},
		{EQ, 2, true},
		{RBO, 1, false},
		{HLT, 0, false},
	} {
		in, out := c.op.Params()
		if in != c.in || out != c.out {
			t.Errorf("%v.Params() = (%d, %v), want (%d, %v)", c.op, in, out, c.in, c.out)
		}
	}
}

func TestModeString(t *testing.T) {
	for m, w := range map[Mode]string{
		Position:  "position",
		Immediate: "immediate",
		Relative:  "relative",
		Mode(7):   "mode(7)",
	} {
		if g := m.String(); g != w {
			t.Errorf("Mode(%d).String() = %q, want %q", int8(m), g, w)
		}
	}
}
