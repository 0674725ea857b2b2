// Package wlog provides leveled logging for the warp-go client.
//
// Time/date are not logged by default since most deployments run under a
// supervisor (systemd, a container runtime) that timestamps stdout/stderr on
// its own. Call SetLogDateTime(true) to prepend timestamps anyway.
//
// Level prefixes follow the syslog/systemd severity convention:
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package wlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]   "
	InfoPrefix  string = "<6>[INFO]    "
	WarnPrefix  string = "<4>[WARNING] "
	ErrPrefix   string = "<3>[ERROR]   "
)

var (
	debugLog *log.Logger = log.New(DebugWriter, DebugPrefix, 0)
	infoLog  *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	warnLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	errLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)

	debugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	infoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	warnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	errTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
)

// SetLogLevel discards writers below lvl ("debug", "info", "warn", "err"/"fatal").
func SetLogLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// nothing to discard
	default:
		fmt.Fprintf(os.Stderr, "wlog: invalid log level %q, defaulting to debug\n", lvl)
		SetLogLevel("debug")
		return
	}
	refreshLoggers()
}

// SetLogDateTime toggles whether timestamps are prepended to every line.
func SetLogDateTime(withDate bool) {
	logDateTime = withDate
}

func refreshLoggers() {
	debugLog.SetOutput(DebugWriter)
	infoLog.SetOutput(InfoWriter)
	warnLog.SetOutput(WarnWriter)
	errLog.SetOutput(ErrWriter)
	debugTimeLog.SetOutput(DebugWriter)
	infoTimeLog.SetOutput(InfoWriter)
	warnTimeLog.SetOutput(WarnWriter)
	errTimeLog.SetOutput(ErrWriter)
}

func output(w io.Writer, plain, timed *log.Logger, s string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		timed.Output(3, s)
		return
	}
	plain.Output(3, s)
}

func Debug(v ...interface{}) { output(DebugWriter, debugLog, debugTimeLog, fmt.Sprint(v...)) }
func Info(v ...interface{})  { output(InfoWriter, infoLog, infoTimeLog, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { output(WarnWriter, warnLog, warnTimeLog, fmt.Sprint(v...)) }
func Error(v ...interface{}) { output(ErrWriter, errLog, errTimeLog, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{}) {
	output(DebugWriter, debugLog, debugTimeLog, fmt.Sprintf(format, v...))
}
func Infof(format string, v ...interface{}) {
	output(InfoWriter, infoLog, infoTimeLog, fmt.Sprintf(format, v...))
}
func Warnf(format string, v ...interface{}) {
	output(WarnWriter, warnLog, warnTimeLog, fmt.Sprintf(format, v...))
}
func Errorf(format string, v ...interface{}) {
	output(ErrWriter, errLog, errTimeLog, fmt.Sprintf(format, v...))
}

// Fatal logs at error level and terminates the process.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

// Fatalf logs at error level and terminates the process.
func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
