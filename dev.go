package main

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/nic/host"
	"github.com/nf/nic/intcode"
)

// devMode runs the program in file, running it afresh each time the file
// changes. With debug set, it shows the debugger in the terminal and the
// program's input is given with the debugger's "in" command.
func devMode(o options, debug bool, file string) error {
	file = filepath.Clean(file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(file)); err != nil {
		return err
	}

	var (
		runner *host.Runner
		cons   *host.Console
		dbg    *debugger
	)
	if debug {
		dbg = newDebugger()
		runner = host.NewRunner(true, dbg.StateFunc)
		cons = host.NewConsole(nil, dbg.log, o.input...)
		dbg.run, dbg.cons = runner, cons
		log.SetPrefix("")
		log.SetOutput(dbg.log)
		go func() {
			if err := dbg.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("nic: ")
			runner.Debug("exit", -1)
		}()
	} else {
		runner = host.NewRunner(true, nil)
		cons = host.NewConsole(os.Stdin, os.Stdout, o.input...)
	}
	cons.Buffer = o.buffer
	if o.mem >= 0 {
		runner.Halted = func(m *intcode.Machine) {
			log.Printf("dev: mem[%d] = %d", o.mem, m.Mem.Read(o.mem))
		}
	}
	if o.trace {
		runner.Trace = host.NewTracer(host.NewTraceLogger(os.Stderr))
	}

	memCh := make(chan []int64)
	go func() {
		var (
			started = false
			run     = time.After(1 * time.Millisecond)
			symFile = file + ".sym"
		)
		for {
			select {
			case <-run:
				log.Printf("dev: load %s", filepath.Base(file))
				mem, err := intcode.Load(file)
				if err == nil {
					mem, err = host.Apply(mem, o.patch...)
				}
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if dbg != nil {
					syms, err := parseSymbols(symFile)
					if err != nil && !errors.Is(err, fs.ErrNotExist) {
						log.Printf("dev: reading symbols: %v", err)
						break
					}
					dbg.setSymbols(syms)
				}
				if !started {
					log.Printf("dev: start")
					memCh <- mem
					started = true
				} else {
					log.Printf("dev: reset")
					runner.Swap(mem)
				}
			case ev := <-watcher.Event:
				if (ev.Name == file || ev.Name == symFile) && !ev.IsAttrib() {
					run = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	return runner.Run(<-memCh, cons)
}
