// Package urtslog provides the leveled logging used across every URTS
// component: packet cache, interpolator, threshold detector, picker
// pipeline, and associator service all log through here instead of the
// standard library logger so verbosity is controlled consistently.
package urtslog

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/viper"
)

// Verbosity keys for viper so a process can flip verbosity without
// recompiling. This package reads only DebugKey, which gates Debug output;
// VerboseKey is not read anywhere in the module.
const (
	VerboseKey = "verbose"
	DebugKey   = "debug"
)

var (
	Stderr = New(os.Stderr)
	Stdout = New(os.Stdout)
	Color  = aurora.NewAurora(true)
)

func Infoln(args ...interface{})  { Stderr.Infoln(args...) }
func Warnln(args ...interface{})  { Stderr.Warnln(args...) }
func Errorln(args ...interface{}) { Stderr.Errorln(args...) }
func Debugln(args ...interface{}) { Stderr.Debugln(args...) }

func Infof(f string, args ...interface{})  { Stderr.Infof(f, args...) }
func Warnf(f string, args ...interface{})  { Stderr.Warnf(f, args...) }
func Errorf(f string, args ...interface{}) { Stderr.Errorf(f, args...) }
func Debugf(f string, args ...interface{}) { Stderr.Debugf(f, args...) }

// Logger is implemented by every sink (stderr writer, no-op, or a future
// JSON sink for aggregation). Components hold a Logger, not a concrete type,
// so tests can swap in a recording sink.
type Logger interface {
	Infoln(args ...interface{})
	Warnln(args ...interface{})
	Errorln(args ...interface{})
	Debugln(args ...interface{})

	Infof(f string, args ...interface{})
	Warnf(f string, args ...interface{})
	Errorf(f string, args ...interface{})
	Debugf(f string, args ...interface{})

	// Named returns a logger that prefixes every line with name, e.g. the
	// owning module's (network, station, channel, location) tuple.
	Named(name string) Logger
}

type writerLogger struct {
	out  io.Writer
	name string
}

// New creates a logger writing to out. Debug lines are suppressed unless
// viper's "debug" key is set, mirroring how each module's General.verbose
// configuration key is expected to be wired at startup.
func New(out io.Writer) Logger {
	return &writerLogger{out: out}
}

func (l *writerLogger) prefix(tag string) string {
	if l.name == "" {
		return tag
	}
	return tag + "[" + l.name + "] "
}

func (l *writerLogger) Infoln(args ...interface{}) {
	l.println(Color.Blue(l.prefix("[INFO] ")).String(), args...)
}

func (l *writerLogger) Warnln(args ...interface{}) {
	l.println(Color.Yellow(l.prefix("[WARN] ")).String(), args...)
}

func (l *writerLogger) Errorln(args ...interface{}) {
	l.println(Color.Red(l.prefix("[ERROR] ")).String(), args...)
}

func (l *writerLogger) Debugln(args ...interface{}) {
	if !viper.GetBool(DebugKey) {
		return
	}
	l.println(Color.Magenta(l.prefix("[DEBUG] ")).String(), args...)
}

func (l *writerLogger) println(tag string, args ...interface{}) {
	line := append([]interface{}{tag}, args...)
	fmt.Fprintln(l.out, line...)
}

func (l *writerLogger) Infof(f string, args ...interface{}) {
	fmt.Fprint(l.out, Color.Blue(l.prefix("[INFO] ")).String())
	fmt.Fprintf(l.out, f, args...)
}

func (l *writerLogger) Warnf(f string, args ...interface{}) {
	fmt.Fprint(l.out, Color.Yellow(l.prefix("[WARN] ")).String())
	fmt.Fprintf(l.out, f, args...)
}

func (l *writerLogger) Errorf(f string, args ...interface{}) {
	fmt.Fprint(l.out, Color.Red(l.prefix("[ERROR] ")).String())
	fmt.Fprintf(l.out, f, args...)
}

func (l *writerLogger) Debugf(f string, args ...interface{}) {
	if !viper.GetBool(DebugKey) {
		return
	}
	fmt.Fprint(l.out, Color.Magenta(l.prefix("[DEBUG] ")).String())
	fmt.Fprintf(l.out, f, args...)
}

func (l *writerLogger) Named(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &writerLogger{out: l.out, name: full}
}

// NoOp discards everything; used by components when the caller does not
// supply a logger.
var NoOp Logger = noopLogger{}

type noopLogger struct{}

func (noopLogger) Infoln(args ...interface{})             {}
func (noopLogger) Warnln(args ...interface{})             {}
func (noopLogger) Errorln(args ...interface{})            {}
func (noopLogger) Debugln(args ...interface{})            {}
func (noopLogger) Infof(f string, args ...interface{})    {}
func (noopLogger) Warnf(f string, args ...interface{})    {}
func (noopLogger) Errorf(f string, args ...interface{})   {}
func (noopLogger) Debugf(f string, args ...interface{})   {}
func (n noopLogger) Named(name string) Logger             { return n }
