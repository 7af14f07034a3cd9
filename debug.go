package main

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/nic/host"
	"github.com/nf/nic/intcode"
)

type debugger struct {
	run  *host.Runner
	cons *host.Console

	app   *tview.Application
	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField

	mu       sync.Mutex
	syms     symbols
	watches  []symbol
	dbg, brk *symbol
}

func (d *debugger) symbols() symbols {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syms
}

func (d *debugger) setSymbols(s symbols) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syms = s
}

// debugCommands are offered by autocompletion before a space is typed.
var debugCommands = []string{"break", "debug", "watch", "in", "pause", "step", "cont", "exit"}

// debugKeys are shortcuts for runner commands.
var debugKeys = map[tcell.Key]string{
	tcell.KeyF5:  "cont",
	tcell.KeyF9:  "pause",
	tcell.KeyF10: "step",
}

func newDebugger() *debugger {
	d := &debugger{
		app:   tview.NewApplication(),
		log:   tview.NewTextView(),
		watch: tview.NewTextView(),
		state: tview.NewTextView(),
		input: tview.NewInputField(),
	}
	d.log.SetMaxLines(1000).SetChangedFunc(func() { d.app.Draw() })
	d.log.SetBorder(true).SetTitle(" log ")
	d.watch.SetWrap(false)
	d.watch.SetBorder(true).SetTitle(" watch ")
	d.state.SetWrap(false).SetBackgroundColor(tcell.ColorDarkGrey)
	d.input.SetLabel("> ").SetFieldBackgroundColor(tcell.ColorBlack)

	grid := tview.NewGrid().
		SetRows(0, 3, 1).
		SetColumns(32, 0).
		AddItem(d.watch, 0, 0, 1, 1, 0, 0, false).
		AddItem(d.log, 0, 1, 1, 1, 0, 0, false).
		AddItem(d.state, 1, 0, 1, 2, 0, 0, false).
		AddItem(d.input, 2, 0, 1, 2, 0, 0, true)
	d.app.SetRoot(grid, true)
	d.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		cmd, ok := debugKeys[ev.Key()]
		if !ok {
			return ev
		}
		d.command(cmd)
		return nil
	})

	d.input.SetAutocompleteFunc(d.complete)
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		if cmd := strings.TrimSpace(d.input.GetText()); cmd != "" {
			d.input.SetText("")
			d.command(cmd)
		}
	})
	return d
}

// complete suggests command names, then symbol labels for the
// commands that take an address.
func (d *debugger) complete(t string) (entries []string) {
	cmd, arg, ok := strings.Cut(t, " ")
	if !ok {
		if t == "" {
			return nil
		}
		for _, c := range debugCommands {
			if strings.HasPrefix(c, t) {
				entries = append(entries, c)
			}
		}
		return entries
	}
	switch cmd {
	case "b", "break", "d", "debug", "w", "watch":
		for _, s := range d.symbols().withLabelPrefix(arg) {
			entries = append(entries, cmd+" "+s.label)
		}
	}
	return entries
}

func (d *debugger) command(cmd string) {
	if cmd == "exit" {
		d.app.Stop()
		return
	}
	if cmd, arg, ok := strings.Cut(cmd, " "); ok {
		switch cmd {
		case "b", "break", "d", "debug":
			s, ok := d.symbols().resolve(arg)
			if !ok {
				log.Printf("invalid addr %q", arg)
				return
			}
			d.run.Debug(cmd, s.addr)
			d.mu.Lock()
			switch cmd[0] {
			case 'b':
				d.brk = &s
				log.Printf("set break %d", s.addr)
			case 'd':
				d.dbg = &s
				log.Printf("set debug %d", s.addr)
			}
			d.mu.Unlock()
			return
		case "w", "watch":
			s, ok := d.symbols().resolve(arg)
			if !ok {
				log.Printf("invalid address %q", arg)
				return
			}
			d.mu.Lock()
			d.watches = append(d.watches, s)
			d.mu.Unlock()
			log.Printf("watching %d", s.addr)
			return
		case "in":
			vals, err := parseValues(arg)
			if err != nil {
				log.Printf("in: %v", err)
				return
			}
			if err := d.cons.Send(vals...); err != nil {
				log.Printf("in: %v", err)
			}
			return
		}
	}
	if err := d.run.Debug(cmd, -1); err != nil {
		log.Print(err)
		return
	}
	d.mu.Lock()
	switch cmd {
	case "b", "break":
		d.brk = nil
		log.Print("cleared break")
	case "d", "debug":
		d.dbg = nil
		log.Print("cleared debug")
	}
	d.mu.Unlock()
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) StateFunc(m *intcode.Machine, k host.StateKind) {
	var (
		watch = d.watchContent(m)
		state string
	)
	if k != host.ClearState && k != host.QuietState {
		state = stateMsg(d.symbols(), m, k)
	}
	d.app.QueueUpdateDraw(func() {
		switch k {
		case host.DebugState, host.ClearState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case host.BreakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case host.PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case host.HaltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		if k != host.QuietState {
			d.state.SetText(state)
		}
	})
}

func stateMsg(syms symbols, m *intcode.Machine, k host.StateKind) string {
	var (
		pcSym string
		sym   string
		inst  = "?"
	)
	if in, err := intcode.Disasm(m.Mem, m.PC); err == nil {
		inst = in.String()
	}
	if s := syms.forAddr(m.PC); len(s) > 0 {
		pcSym = s[0].String() + " -> "
	}
	seen := make(map[int]bool)
	for _, addr := range m.OpAddrs() {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		for _, s := range syms.forAddr(addr) {
			if sym != "" {
				sym += " "
			}
			sym += s.String()
		}
	}
	kind := "       "
	switch k {
	case host.BreakState:
		kind = "[break]"
	case host.DebugState:
		kind = "[debug]"
	case host.PauseState:
		kind = "[pause]"
	case host.HaltState:
		kind = "[HALT!]"
	}
	return fmt.Sprintf("%6d %s %s%s\n%s\nrb: %d  mem: %d\n",
		m.PC, kind, pcSym, sym, inst, m.RelBase, m.Mem.Len())
}

func (d *debugger) watchContent(m *intcode.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if s := d.brk; s != nil {
		fmt.Fprintf(&b, "%s [%d] brk!\n", s.label, s.addr)
	}
	if s := d.dbg; s != nil {
		fmt.Fprintf(&b, "%s [%d] dbg?\n", s.label, s.addr)
	}
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		var v int64
		if w.addr < m.Mem.Len() {
			v = m.Mem[w.addr]
		}
		fmt.Fprintf(&b, "%s [%d] %d", w.label, w.addr, v)
	}
	return b.String()
}
