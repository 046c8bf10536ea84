// logging.go - structured logging for the kernel's own diagnostics.
//
// Categories are a fixed set: scheduler, memory, clock, and fatal (the
// kernel itself logs only scheduler and fatal entries). There is no general-purpose
// key/value free-for-all the way an application-level logger might offer;
// a bare-metal kernel logs a small, known vocabulary of events.
package kernel

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// LogLevel is the severity of a log entry.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// category names the subsystem a log entry comes from.
type category string

const (
	catScheduler category = "scheduler"
	catMemory    category = "memory"
	catClock     category = "clock"
	catFatal     category = "fatal"
)

// LogEntry is a single structured log record.
type LogEntry struct {
	Level     LogLevel
	Category  category
	Pid       Pid
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface the kernel writes through.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// DefaultLogger writes plain, level-filtered lines to an io.Writer.
type DefaultLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	out   io.Writer
}

// NewDefaultLogger creates a logger at the given minimum level, writing to stdout.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewWriterLogger(level, os.Stdout)
}

// NewWriterLogger creates a logger writing to any io.Writer.
func NewWriterLogger(level LogLevel, out io.Writer) *DefaultLogger {
	l := &DefaultLogger{out: out}
	l.level.Store(int32(level))
	return l
}

func (l *DefaultLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s [%-9s] %s",
		entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Category, entry.Message)
	if entry.Pid != NullPid {
		fmt.Fprintf(l.out, " pid=%d", entry.Pid)
	}
	if entry.Err != nil {
		fmt.Fprintf(l.out, " err=%v", entry.Err)
	}
	fmt.Fprintln(l.out)
}

// NoOpLogger discards every entry.
type NoOpLogger struct{}

func (NoOpLogger) Log(LogEntry) {}

func (NoOpLogger) IsEnabled(LogLevel) bool { return false }

// logf is the kernel's internal convenience around Logger, used by every
// subsystem instead of calling k.logger.Log directly.
func (k *Kernel) logf(level LogLevel, cat category, format string, args ...any) {
	if k.logger == nil || !k.logger.IsEnabled(level) {
		return
	}
	k.logger.Log(LogEntry{
		Level:    level,
		Category: cat,
		Pid:      NullPid,
		Message:  fmt.Sprintf(format, args...),
	})
}

// --- logiface backend ---
//
// kernelEvent, kernelEventFactory and the writer built in NewLogifaceLogger
// mirror the minimal Event/Factory/Writer triple the logiface test suite constructs to
// exercise a custom backend; here it is wired as the real production
// adapter between Logger and github.com/joeycumines/logiface, rather than
// only appearing in tests.

type kernelEvent struct {
	logiface.UnimplementedEvent
	level   logiface.Level
	message string
	fields  map[string]any
	err     error
}

func (e *kernelEvent) Level() logiface.Level { return e.level }

func (e *kernelEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

func (e *kernelEvent) AddMessage(msg string) bool { e.message = msg; return true }

func (e *kernelEvent) AddError(err error) bool { e.err = err; return true }

func kernelEventFactory(level logiface.Level) *kernelEvent {
	return &kernelEvent{level: level}
}

// logifaceLogger adapts a generic logiface logger into Logger.
type logifaceLogger struct {
	backing  *logiface.Logger[*kernelEvent]
	minLevel LogLevel
}

// NewLogifaceLogger builds a Logger backed by logiface, writing rendered
// entries to out via the DefaultLogger line format.
func NewLogifaceLogger(level LogLevel, out io.Writer) Logger {
	sink := NewWriterLogger(level, out)
	writer := logiface.NewWriterFunc(func(e *kernelEvent) error {
		sink.Log(LogEntry{
			Level:    fromLogifaceLevel(e.level),
			Category: "logiface",
			Message:  e.message,
			Err:      e.err,
		})
		return nil
	})
	backing := logiface.New[*kernelEvent](
		logiface.WithEventFactory[*kernelEvent](logiface.NewEventFactoryFunc(kernelEventFactory)),
		logiface.WithWriter[*kernelEvent](writer),
		logiface.WithLevel[*kernelEvent](toLogifaceLevel(level)),
	)
	return &logifaceLogger{backing: backing, minLevel: level}
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func fromLogifaceLevel(l logiface.Level) LogLevel {
	switch {
	case l <= logiface.LevelError:
		return LevelError
	case l <= logiface.LevelWarning:
		return LevelWarn
	case l <= logiface.LevelInformational:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func (l *logifaceLogger) IsEnabled(level LogLevel) bool {
	return l.backing.Level() != logiface.LevelDisabled && toLogifaceLevel(level) <= l.backing.Level()
}

func (l *logifaceLogger) Log(entry LogEntry) {
	b := l.backing.Build(toLogifaceLevel(entry.Level))
	if entry.Pid != NullPid {
		b = b.Int("pid", int(entry.Pid))
	}
	b = b.Str("category", string(entry.Category))
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}
