package logging

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias for logrus.Fields kept for call-site brevity.
type Fields = logrus.Fields

// Level is one of driftbook's eight logging levels.
type Level int

const (
	LevelCritical Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTraceL1
	LevelTraceL2
	LevelTraceL3
)

func (l Level) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTraceL1:
		return "trace_l1"
	case LevelTraceL2:
		return "trace_l2"
	case LevelTraceL3:
		return "trace_l3"
	default:
		return "unknown"
	}
}

// ringSize is the number of trace records kept as backtrace context.
const ringSize = 10

// Logger is driftbook's logging facade: a logrus.Logger plus a category
// discipline and a trace backtrace ring.
type Logger struct {
	*logrus.Logger
	ring *traceRing
}

// New builds a Logger at the given minimum level, writing JSON records to
// stdout. Call Configure afterward to redirect to a rotating file.
func New(minLevel Level) *Logger {
	base := logrus.New()
	base.SetReportCaller(true)
	base.SetLevel(logrusLevel(minLevel))
	base.SetFormatter(jsonFormatter())

	return &Logger{Logger: base, ring: newTraceRing(ringSize)}
}

// Configure redirects output to a size-rotated file when path is non-empty,
// mirroring the teacher's Configure(level, format, output, maxAge) shape.
// An empty path leaves output on stdout.
func (l *Logger) Configure(path string, maxSizeMB, maxBackups int) error {
	if path == "" {
		return nil
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 1 // spec.md's 512KiB rotation threshold, rounded up to lumberjack's MB granularity
	}
	if maxBackups <= 0 {
		maxBackups = 5
	}
	l.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	})
	return nil
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	}
}

func logrusLevel(l Level) logrus.Level {
	switch l {
	case LevelCritical, LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// RaiseLevel moves the minimum visible level one step more verbose, used by
// the CLI's repeatable -v flag. Saturates at TraceL3.
func (l *Logger) RaiseLevel() {
	switch l.Logger.GetLevel() {
	case logrus.ErrorLevel:
		l.Logger.SetLevel(logrus.WarnLevel)
	case logrus.WarnLevel:
		l.Logger.SetLevel(logrus.InfoLevel)
	case logrus.InfoLevel:
		l.Logger.SetLevel(logrus.DebugLevel)
	default:
		l.Logger.SetLevel(logrus.TraceLevel)
	}
}

// Entry is a component-and-category-scoped log entry.
type Entry struct {
	logger   *Logger
	entry    *logrus.Entry
	category string
}

// WithComponent scopes subsequent records to a component, mirroring the
// teacher's WithComponent chaining.
func (l *Logger) WithComponent(component string) *Entry {
	return &Entry{logger: l, entry: l.Logger.WithField("component", component)}
}

// WithCategory sets the category field driftbook's records carry.
func (e *Entry) WithCategory(category string) *Entry {
	return &Entry{logger: e.logger, entry: e.entry.WithField("category", category), category: category}
}

// WithFields attaches arbitrary structured fields.
func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{logger: e.logger, entry: e.entry.WithFields(fields), category: e.category}
}

// WithError attaches an error field.
func (e *Entry) WithError(err error) *Entry {
	return &Entry{logger: e.logger, entry: e.entry.WithError(err), category: e.category}
}

func (e *Entry) attachBacktrace() *logrus.Entry {
	bt := e.logger.ring.snapshot()
	if len(bt) == 0 {
		return e.entry
	}
	return e.entry.WithField("backtrace", bt)
}

// Critical logs at driftbook's highest severity: logrus Error plus a
// critical=true marker, with the trace backtrace ring attached.
func (e *Entry) Critical(args ...interface{}) {
	e.attachBacktrace().WithField("critical", true).Error(args...)
}

// Error logs at Error severity with the trace backtrace ring attached.
func (e *Entry) Error(args ...interface{}) {
	e.attachBacktrace().Error(args...)
}

func (e *Entry) Warn(args ...interface{})  { e.entry.Warn(args...) }
func (e *Entry) Info(args ...interface{})  { e.entry.Info(args...) }
func (e *Entry) Debug(args ...interface{}) { e.entry.Debug(args...) }

func (e *Entry) trace(traceLevel int, args ...interface{}) {
	line := strings.TrimRight(fmt.Sprintln(args...), "\n")
	e.logger.ring.push(line)
	e.entry.WithField("trace_level", traceLevel).Trace(args...)
}

// TraceL1, TraceL2, TraceL3 log at increasingly verbose trace levels and
// each pushes the record onto the backtrace ring.
func (e *Entry) TraceL1(args ...interface{}) { e.trace(1, args...) }
func (e *Entry) TraceL2(args ...interface{}) { e.trace(2, args...) }
func (e *Entry) TraceL3(args ...interface{}) { e.trace(3, args...) }
