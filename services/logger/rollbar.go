package logsvc

import (
	"io"
	"log"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/student"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levels = map[string]level{
	"DEBUG": levelDebug,
	"INFO":  levelInfo,
	"WARN":  levelWarn,
	"ERROR": levelError,
}

// RollbarLogger prints records below WARN to `out` and the others to `err`,
// and reports them to rollbar when enabled.
type RollbarLogger struct {
	out *log.Logger
	err *log.Logger
	min level
}

var _ core.Logger = (*RollbarLogger)(nil)

const logFlags = log.LstdFlags

// NewRollbarLogger writes to stdout/stderr, and also to `logFile` when not nil.
func NewRollbarLogger(conf *core.Config, logFile io.Writer) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)

	var out, errOut io.Writer = os.Stdout, os.Stderr
	if logFile != nil {
		out, errOut = io.MultiWriter(out, logFile), io.MultiWriter(errOut, logFile)
	}
	return newLogger(out, errOut, conf.LogLevel)
}

func newLogger(out, errOut io.Writer, minLevel string) *RollbarLogger {
	min, ok := levels[minLevel]
	if !ok {
		min = levelInfo
	}
	return &RollbarLogger{
		out: log.New(out, "", logFlags),
		err: log.New(errOut, "", logFlags),
		min: min,
	}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for pending rollbar reports.
func (l RollbarLogger) Close() {
	rollbar.Wait()
}

// expected fmt: msg | error, map[string]interface{}, *student.Student, student.Identity
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var personSet bool
	setPerson := func(id student.Identity) {
		if !personSet { // only set one student
			rollbar.SetPerson(id.AccessID, id.FirstName, "")
			personSet = true
		}
	}

	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	printArgs := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case *student.Student:
			setPerson(v.Identity)
		case student.Identity:
			setPerson(v)
		default:
			rbArgs = append(rbArgs, arg)
			printArgs = append(printArgs, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return rbArgs, printArgs
}

func (l RollbarLogger) print(lvl level, prefix, msg string, args []interface{}) {
	std := l.out
	if lvl >= levelWarn {
		std = l.err
	}
	std.Println(prefix + " " + msg)
	for _, arg := range args {
		std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.min > levelDebug {
		return
	}
	rbArgs, printArgs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.print(levelDebug, "DEBUG", msg, printArgs)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	if l.min > levelInfo {
		return
	}
	rbArgs, printArgs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.print(levelInfo, "INFO", msg, printArgs)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	if l.min > levelWarn {
		return
	}
	rbArgs, printArgs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.print(levelWarn, "WARN", msg, printArgs)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, printArgs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.print(levelError, "ERROR", msg, printArgs)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, printArgs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.print(levelFatal, "FATAL", msg, printArgs)
	rollbar.Wait()
	l.err.Fatal(msg)
}
