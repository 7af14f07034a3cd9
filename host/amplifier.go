package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nf/nic/intcode"
)

// Chain runs mem on a series of amplifiers, one for each phase setting,
// and returns the last signal emitted by the final amplifier.
//
// Each amplifier first receives its phase setting. The first amplifier
// then receives the input signal 0, and each amplifier's output is the
// next one's input. In feedback mode the final amplifier's output is
// also fed back to the first, until every amplifier has halted.
//
// Values sent to an amplifier that has already halted are discarded.
// If any amplifier faults the others are stopped and the first fault
// is returned.
func Chain(mem []int64, phases []int64, feedback bool) (int64, error) {
	n := len(phases)
	if n == 0 {
		return 0, errors.New("no amplifiers")
	}

	var (
		links = make([]chan int64, n) // links[i] is the input of amplifier i
		tail  = make(chan int64, 2)   // output of the final amplifier
		done  = make([]chan struct{}, n)
		ms    = make([]*intcode.Machine, n)
	)
	for i, p := range phases {
		links[i] = make(chan int64, 2)
		links[i] <- p
		done[i] = make(chan struct{})
	}
	links[0] <- 0
	if !feedback {
		close(links[0])
	}
	for i := range ms {
		out := tail
		if i < n-1 {
			out = links[i+1]
		}
		ms[i] = intcode.NewMachine(mem, links[i], out)
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i, m := range ms {
		wg.Add(1)
		go func(i int, m *intcode.Machine) {
			defer wg.Done()
			if err := m.Run(); err != nil {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("amplifier %d: %w", i, err)
					for _, m := range ms {
						m.Close()
					}
				})
			}
			if i < n-1 {
				close(links[i+1])
			} else {
				close(tail)
			}
			close(done[i])
			if i > 0 {
				// Discard what the previous amplifier sends after
				// this one has stopped, so that it cannot block.
				for range links[i] {
				}
			}
		}(i, m)
	}

	var (
		signal int64
		got    bool
	)
	for v := range tail {
		signal, got = v, true
		if !feedback {
			continue
		}
		select {
		case links[0] <- v:
		case <-done[0]:
		}
	}
	if feedback {
		// The final amplifier has stopped; nothing more will arrive.
		close(links[0])
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	if !got {
		return 0, fmt.Errorf("amplifier %d: no output", n-1)
	}
	return signal, nil
}

// MaxSignal runs Chain for every ordering of the phase settings and
// returns the highest signal along with the ordering that produced it.
func MaxSignal(mem []int64, settings []int64, feedback bool) (best int64, phases []int64, err error) {
	if len(settings) == 0 {
		return 0, nil, errors.New("no phase settings")
	}
	permute(settings, func(p []int64) bool {
		var s int64
		s, err = Chain(mem, p, feedback)
		if err != nil {
			err = fmt.Errorf("phases %v: %w", p, err)
			return false
		}
		if phases == nil || s > best {
			best = s
			phases = append(phases[:0], p...)
		}
		return true
	})
	if err != nil {
		return 0, nil, err
	}
	return best, phases, nil
}

// permute calls f with each permutation of a, using Heap's algorithm,
// until f returns false. The slice passed to f is reused between calls.
func permute(a []int64, f func([]int64) bool) {
	p := append([]int64(nil), a...)
	c := make([]int, len(p))
	if !f(p) {
		return
	}
	for i := 0; i < len(p); {
		if c[i] < i {
			if i%2 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[c[i]], p[i] = p[i], p[c[i]]
			}
			if !f(p) {
				return
			}
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}
