package intcode

// Memory is the growable memory of an IntCode machine.
// Reading or writing beyond its end extends it with zeroed cells.
// It never shrinks.
type Memory []int64

// Len returns the number of cells currently allocated.
func (m Memory) Len() int { return len(m) }

// Grow extends m so that it holds at least n cells.
// Existing cells are unchanged and new cells are zero.
func (m *Memory) Grow(n int) {
	if n <= len(*m) {
		return
	}
	if n <= cap(*m) {
		old := len(*m)
		*m = (*m)[:n]
		for i := old; i < n; i++ {
			(*m)[i] = 0
		}
		return
	}
	c := 2 * cap(*m)
	if c < n {
		c = n
	}
	grown := make(Memory, n, c)
	copy(grown, *m)
	*m = grown
}

// Read returns the value at addr, which must be non-negative.
func (m *Memory) Read(addr int) int64 {
	m.Grow(addr + 1)
	return (*m)[addr]
}

// Write stores v at addr, which must be non-negative.
func (m *Memory) Write(addr int, v int64) {
	m.Grow(addr + 1)
	(*m)[addr] = v
}
