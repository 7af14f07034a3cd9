package host

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nf/nic/intcode"
)

// NewTraceLogger returns a logger that writes trace records to w.
func NewTraceLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return l
}

// NewTracer returns a machine Trace hook that logs each
// instruction to l at debug level.
func NewTracer(l *logrus.Logger) func(*intcode.Machine, intcode.Instruction) {
	return func(m *intcode.Machine, in intcode.Instruction) {
		if !l.IsLevelEnabled(logrus.DebugLevel) {
			return
		}
		l.WithFields(logrus.Fields{
			"pc":   m.PC,
			"op":   in.Op.String(),
			"rb":   m.RelBase,
			"args": in.Args,
		}).Debug(in.String())
	}
}
