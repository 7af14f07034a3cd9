package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSymbols(t *testing.T) {
	name := filepath.Join(t.TempDir(), "prog.ic.sym")
	content := "# loop counter\n9 count\n\n4 loop\n4\tstart\n"
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := parseSymbols(name)
	if err != nil {
		t.Fatal(err)
	}
	want := symbols{{4, "loop"}, {4, "start"}, {9, "count"}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(symbol{})); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"4\n", "x loop\n", "-1 loop\n", "1 a b\n"} {
		if err := os.WriteFile(name, []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := parseSymbols(name); err == nil {
			t.Errorf("parseSymbols accepted %q", bad)
		}
	}
}

func TestSymbols(t *testing.T) {
	syms := symbols{{4, "loop"}, {4, "start"}, {9, "count"}, {12, "counter"}}

	if diff := cmp.Diff([]symbol{{4, "loop"}, {4, "start"}}, syms.forAddr(4), cmp.AllowUnexported(symbol{})); diff != "" {
		t.Errorf("forAddr(4) mismatch (-want +got):\n%s", diff)
	}
	if got := syms.forAddr(5); got != nil {
		t.Errorf("forAddr(5) = %v, want nothing", got)
	}
	if got := syms.withLabelPrefix("count"); len(got) != 2 {
		t.Errorf("withLabelPrefix(count) = %v, want 2 symbols", got)
	}

	for _, c := range []struct {
		in   string
		want symbol
		ok   bool
	}{
		{"count", symbol{9, "count"}, true},
		{"12", symbol{12, "counter"}, true},
		{"30", symbol{30, "30"}, true},
		{"-1", symbol{}, false},
		{"nope", symbol{}, false},
	} {
		got, ok := syms.resolve(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("resolve(%q) = %v, %v, want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}

	var none symbols
	if _, ok := none.resolve("loop"); ok {
		t.Error("empty symbols resolved a label")
	}
	if s, ok := none.resolve("3"); !ok || s.addr != 3 {
		t.Errorf("empty symbols resolve(3) = %v, %v", s, ok)
	}
}
