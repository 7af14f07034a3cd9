// Command nic executes IntCode programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/nf/nic/config"
	"github.com/nf/nic/host"
	"github.com/nf/nic/intcode"
)

func main() {
	log.SetPrefix("nic: ")
	log.SetFlags(0)

	var (
		cliFlag    = flag.Bool("cli", false, "disable GUI features")
		devFlag    = flag.Bool("dev", false, "enable developer mode (re-run the program when its file changes)")
		debugFlag  = flag.Bool("debug", false, "enable debugger (implies -dev)")
		configFlag = flag.String("config", "", "read configuration from `file` (default: "+config.FileName+" in the program's directory or above)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)
	flag.String("in", "", "comma-separated `values` to give the program before standard input")
	flag.Int("buffer", 0, "capacity of the program's input and output channels")
	flag.Bool("trace", false, "log each instruction to standard error")
	flag.String("patch", "", "set memory cells before running, as comma-separated `addr=value` pairs")
	flag.Int("mem", -1, "print the value at memory `addr` once the program halts")
	flag.Int64("nounverb", 0, "find the noun and verb (addresses 1 and 2) that leave `target` at address 0")
	flag.String("amp", "", "find the best amplifier phase `settings`, as a range (5-9) or a list (0,1,2,3,4)")
	flag.Bool("feedback", false, "connect the amplifiers in a feedback loop")
	flag.String("paint", "", "run the hull painting robot, starting on a panel of `colour` 0 or 1")
	flag.String("png", "", "write the painted hull to `file`")
	flag.Int("scale", config.DefaultScale, "hull image pixels per panel")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-cli] [-in values] [-patch addr=value] [-mem addr] [-trace] <program.ic>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s <-dev | -debug> <program.ic>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -nounverb target <program.ic>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -amp settings [-feedback] <program.ic>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -paint colour [-cli] [-png file] <program.ic>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	file := flag.Arg(0)

	cfg, err := loadConfig(*configFlag, file)
	if err != nil {
		log.Fatal(err)
	}
	o, err := newOptions(cfg)
	if err != nil {
		log.Fatal(err)
	}
	o.gui = !*cliFlag
	flag.Visit(func(f *flag.Flag) {
		if err == nil {
			err = o.set(f.Name, f.Value.String())
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	if *devFlag || *debugFlag {
		if err := devMode(o, *debugFlag, file); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err = run(o, file)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the named configuration file or, if name is empty,
// looks for one alongside the program.
func loadConfig(name, program string) (*config.Config, error) {
	if name != "" {
		return config.Load(name)
	}
	cfg, err := config.FindAndLoad(filepath.Dir(program))
	if err != nil || cfg != nil {
		return cfg, err
	}
	return config.Default(), nil
}

// options are the settings for a run, from the
// configuration file overridden by command line flags.
type options struct {
	input  []int64
	buffer int
	trace  bool
	gui    bool
	patch  []host.Patch
	mem    int // -1 for none

	nounVerb *int64 // target

	amp      []int64
	feedback bool

	paint bool
	start int64
	png   string
	scale int
}

func newOptions(c *config.Config) (options, error) {
	o := options{
		input:    c.Run.Input,
		buffer:   c.Run.Buffer,
		trace:    c.Run.Trace,
		feedback: c.Amp.Feedback,
		paint:    c.Paint.Enabled,
		start:    c.Paint.Start,
		png:      c.Paint.PNG,
		scale:    c.Paint.Scale,
		mem:      -1,
	}
	if c.Run.Mem != nil {
		o.mem = *c.Run.Mem
		if o.mem >= intcode.MaxMem {
			return o, fmt.Errorf("%s: run.mem: address %d out of range", c.Path, o.mem)
		}
	}
	var err error
	if c.Run.Patch != "" {
		if o.patch, err = parsePatches(c.Run.Patch); err != nil {
			return o, fmt.Errorf("%s: run.patch: %w", c.Path, err)
		}
	}
	if c.Amp.Phases != "" {
		if o.amp, err = parsePhases(c.Amp.Phases); err != nil {
			return o, fmt.Errorf("%s: amp.phases: %w", c.Path, err)
		}
	}
	return o, nil
}

// set applies the command line flag with the given name and value.
func (o *options) set(name, value string) (err error) {
	switch name {
	case "in":
		o.input, err = parseValues(value)
	case "buffer":
		o.buffer, err = strconv.Atoi(value)
		if err == nil && o.buffer < 0 {
			err = errors.New("must not be negative")
		}
	case "trace":
		o.trace, err = strconv.ParseBool(value)
	case "patch":
		o.patch, err = parsePatches(value)
	case "mem":
		o.mem, err = strconv.Atoi(value)
		if err == nil && (o.mem < 0 || o.mem >= intcode.MaxMem) {
			err = fmt.Errorf("address %d out of range", o.mem)
		}
	case "nounverb":
		var target int64
		target, err = strconv.ParseInt(value, 10, 64)
		o.nounVerb = &target
	case "amp":
		o.amp, err = parsePhases(value)
	case "feedback":
		o.feedback, err = strconv.ParseBool(value)
	case "paint":
		o.paint = true
		o.start, err = strconv.ParseInt(value, 10, 64)
		if err == nil && o.start != host.Black && o.start != host.White {
			err = errors.New("colour must be 0 or 1")
		}
	case "png":
		o.png = value
	case "scale":
		o.scale, err = strconv.Atoi(value)
		if err == nil && o.scale < 1 {
			err = errors.New("must be at least 1")
		}
	}
	if err != nil {
		return fmt.Errorf("-%s: %w", name, err)
	}
	return nil
}

// parseValues parses a list of integers separated by commas or spaces.
func parseValues(s string) ([]int64, error) {
	var vals []int64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// parsePatches parses memory patches given as "addr=value" pairs
// separated by commas or spaces.
func parsePatches(s string) ([]host.Patch, error) {
	var patches []host.Patch
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		a, v, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid patch %q, want addr=value", f)
		}
		addr, err1 := strconv.Atoi(a)
		val, err2 := strconv.ParseInt(v, 10, 64)
		if err1 != nil || err2 != nil || addr < 0 || addr >= intcode.MaxMem {
			return nil, fmt.Errorf("invalid patch %q", f)
		}
		patches = append(patches, host.Patch{Addr: addr, Value: val})
	}
	if len(patches) == 0 {
		return nil, errors.New("no patches")
	}
	return patches, nil
}

// parsePhases parses phase settings given as an inclusive range
// such as "5-9" or as a list of distinct values such as "0,1,2,3,4".
func parsePhases(s string) ([]int64, error) {
	var phases []int64
	if lo, hi, ok := strings.Cut(s, "-"); ok && lo != "" {
		a, err1 := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		b, err2 := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err1 != nil || err2 != nil || a > b {
			return nil, fmt.Errorf("invalid range %q", s)
		}
		for v := a; v <= b; v++ {
			phases = append(phases, v)
		}
	} else {
		var err error
		if phases, err = parseValues(s); err != nil {
			return nil, err
		}
	}
	if len(phases) == 0 {
		return nil, errors.New("no phase settings")
	}
	if len(phases) > 10 {
		return nil, fmt.Errorf("%d phase settings, at most 10 allowed", len(phases))
	}
	seen := make(map[int64]bool)
	for _, p := range phases {
		if seen[p] {
			return nil, fmt.Errorf("phase %d given twice", p)
		}
		seen[p] = true
	}
	return phases, nil
}

func run(o options, file string) error {
	mem, err := intcode.Load(file)
	if err != nil {
		return err
	}
	if mem, err = host.Apply(mem, o.patch...); err != nil {
		return err
	}
	switch {
	case o.nounVerb != nil:
		return runNounVerb(*o.nounVerb, mem)
	case o.amp != nil:
		return runAmp(o, mem)
	case o.paint:
		return runPaint(o, mem)
	}
	r := host.NewRunner(false, nil)
	if o.trace {
		r.Trace = host.NewTracer(host.NewTraceLogger(os.Stderr))
	}
	var result int64
	if o.mem >= 0 {
		r.Halted = func(m *intcode.Machine) { result = m.Mem.Read(o.mem) }
	}
	cons := host.NewConsole(os.Stdin, os.Stdout, o.input...)
	cons.Buffer = o.buffer
	if err := r.Run(mem, cons); err != nil {
		return err
	}
	if o.mem >= 0 {
		fmt.Println(result)
	}
	return nil
}

func runNounVerb(target int64, mem []int64) error {
	noun, verb, err := host.NounVerb(mem, target)
	if err != nil {
		return err
	}
	fmt.Println(100*noun + verb)
	log.Printf("noun %d, verb %d", noun, verb)
	return nil
}

func runAmp(o options, mem []int64) error {
	signal, phases, err := host.MaxSignal(mem, o.amp, o.feedback)
	if err != nil {
		return err
	}
	fmt.Println(signal)
	log.Printf("phases %v", phases)
	return nil
}

func runPaint(o options, mem []int64) error {
	robot := host.NewRobot(o.start)
	if !o.gui {
		if err := robot.Run(mem); err != nil {
			return err
		}
		return paintDone(o, robot.Hull)
	}

	g := host.NewGUI("nic", o.scale)
	robot.Moved = func(r *host.Robot) { g.Show(r.Hull) }
	g.Show(robot.Hull)
	errc := make(chan error, 1)
	go func() {
		err := robot.Run(mem)
		if err == nil {
			g.Show(robot.Hull)
			err = paintDone(o, robot.Hull)
		}
		errc <- err
	}()
	// The window stays open until it is closed.
	if err := g.Run(nil); err != nil {
		return fmt.Errorf("gui: %v", err)
	}
	select {
	case err := <-errc:
		return err
	default:
		return errors.New("window closed while painting")
	}
}

func paintDone(o options, h *host.Hull) error {
	fmt.Print(h)
	log.Printf("painted %d panels", h.Painted())
	if o.png == "" {
		return nil
	}
	f, err := os.Create(o.png)
	if err != nil {
		return err
	}
	if err := h.WritePNG(f, o.scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
