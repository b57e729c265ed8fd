package oplog

import (
	"fmt"
	"sync"
	"time"
)

// TimeFormat is the timestamp layout of rendered lines.
const TimeFormat = "2006-01-02 15:04:05"

// Severity tags a log line.
type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Line is one entry of the operation log.
type Line struct {
	Time     time.Time
	Message  string
	Severity Severity
	// Run is the ID of the pipeline run the line belongs to, if any.
	Run string
}

// String renders the line as "[timestamp] message".
func (l Line) String() string {
	return fmt.Sprintf("[%s] %s", l.Time.Format(TimeFormat), l.Message)
}

// Sink receives log lines.
type Sink interface {
	Emit(Line)
}

// FuncSink adapts a function to Sink.
type FuncSink func(Line)

// Emit implements Sink.
func (f FuncSink) Emit(l Line) { f(l) }

// Logger stamps messages and fans them out to sinks.
type Logger struct {
	mu    sync.Mutex
	sinks []Sink
	run   string
	now   func() time.Time
}

// New returns a Logger writing to sinks.
func New(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, now: time.Now}
}

// AddSink attaches another sink.
func (l *Logger) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// SetRun tags subsequent lines with a pipeline run ID.
func (l *Logger) SetRun(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.run = id
}

// Log emits message at severity.
func (l *Logger) Log(sev Severity, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := Line{Time: l.now(), Message: message, Severity: sev, Run: l.run}
	for _, s := range l.sinks {
		s.Emit(line)
	}
}

// Infof logs an info line.
func (l *Logger) Infof(format string, args ...any) {
	l.Log(Info, fmt.Sprintf(format, args...))
}

// Successf logs a success line.
func (l *Logger) Successf(format string, args ...any) {
	l.Log(Success, fmt.Sprintf(format, args...))
}

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.Log(Error, fmt.Sprintf(format, args...))
}

// Recorder keeps lines in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// Emit implements Sink.
func (r *Recorder) Emit(l Line) {
	r.mu.Lock()
	r.lines = append(r.lines, l)
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}
