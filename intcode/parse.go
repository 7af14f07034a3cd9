package intcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads a program: a comma-separated sequence of decimal integers.
// Whitespace around each integer is ignored.
func Parse(r io.Reader) ([]int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(b))
}

// ParseString is like Parse but reads the program from s.
func ParseString(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty program")
	}
	fields := strings.Split(s, ",")
	mem := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		mem[i] = v
	}
	return mem, nil
}

// Load reads the program in the named file.
func Load(name string) ([]int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mem, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return mem, nil
}
